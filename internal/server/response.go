package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the error envelope.
const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
	codeNotFound       = "not_found"
	codeNotSaved       = "not_saved"
	codeInternal       = "internal_error"
	codeAIError        = "ai_error"
	codeAIUnavailable  = "ai_unavailable"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dataEnvelope{Data: data})
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}
