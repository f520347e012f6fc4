package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicServer(t *testing.T, status int, body map[string]any) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: srv.URL})
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropicProvider_Text(t *testing.T) {
	p := anthropicServer(t, http.StatusOK, anthropicMessage("Count up from 7 eight times.", "end_turn"))

	resp, err := p.Generate(context.Background(), Prompt("tutor", "help", 350, 0))
	require.NoError(t, err)
	assert.Equal(t, "Count up from 7 eight times.", resp.Text())
	assert.Equal(t, 80, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5", resp.Model)
}

func TestAnthropicProvider_TruncatedSchema(t *testing.T) {
	p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"name":"A`, "max_tokens"))

	_, err := p.Generate(context.Background(), Request{Schema: testSchema(), MaxTokens: 5})
	var truncated *ErrMaxTokensExceeded
	assert.True(t, errors.As(err, &truncated), "got %T", err)
}

func TestAnthropicProvider_Errors(t *testing.T) {
	errBody := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
	}

	p := anthropicServer(t, http.StatusTooManyRequests, errBody("rate_limit_error"))
	_, err := p.Generate(context.Background(), Prompt("", "x", 10, 0))
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl), "got %T", err)

	p = anthropicServer(t, http.StatusUnauthorized, errBody("authentication_error"))
	_, err = p.Generate(context.Background(), Prompt("", "x", 10, 0))
	var ua *ErrUnauthorized
	assert.True(t, errors.As(err, &ua), "got %T", err)
}

func TestAnthropicProvider_Identity(t *testing.T) {
	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "k", Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", p.ModelID())
	assert.Equal(t, ProviderAnthropic, p.Name())

	_, err = NewAnthropicProvider(ProviderConfig{})
	assert.Error(t, err)
}
