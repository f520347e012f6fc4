package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/logging"
)

// allowHeaders matches what the browser client sends.
var allowHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: allowHeaders,
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := auth.FromContext(c.Request.Context()); !id.IsAnonymous() {
			fields = append(fields, "user_id", id.UserID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// identify attaches the bearer token's identity to the request context.
// A missing or invalid token leaves the request anonymous; requireUser
// decides whether that is acceptable.
func identify(v *auth.Verifier, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" || v == nil || !v.Enabled() {
			c.Next()
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			log.Debug("bearer token rejected", "error", err)
			c.Set(authErrorKey, err)
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

const authErrorKey = "mathdrill.auth_error"

// requireUser rejects anonymous requests with 401.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.FromContext(c.Request.Context()).IsAnonymous() {
			c.Next()
			return
		}
		msg := "missing or invalid token"
		if err, ok := c.Get(authErrorKey); ok {
			msg = err.(error).Error()
		}
		respondError(c, http.StatusUnauthorized, codeUnauthorized, msg)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
