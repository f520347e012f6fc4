// Package llm talks to hosted language models for the tutor. Every
// provider is reached through Provider; decorators add retries and
// request recording.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates one completion per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider family, e.g. "openai".
	Name() string

	// ModelID is the model requests are sent to.
	ModelID() string
}

// Request is a single completion request.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks for JSON matching it. The reply is validated
	// before it is returned. Without a schema the reply is plain text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Prompt builds a one-turn request.
func Prompt(system, user string, maxTokens int, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document.
type Schema struct {
	// Name is kebab-case; providers use it as the tool or format name.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completion.
type Response struct {
	// Content is the validated JSON object for schema requests, otherwise
	// the reply text.
	Content json.RawMessage

	Usage Usage
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Text returns Content as a trimmed string. Content holding a JSON string
// literal is unquoted.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// Decode unmarshals Content into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
