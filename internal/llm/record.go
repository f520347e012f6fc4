package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/store"
)

// EventRecorder persists one row per request.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

type recordingProvider struct {
	inner  Provider
	events EventRecorder
	log    *logging.Logger
}

// WithRecording logs every request and, when events is non-nil, stores
// it. Recording failures never fail the request.
func WithRecording(p Provider, events EventRecorder, log *logging.Logger) Provider {
	return &recordingProvider{
		inner:  p,
		events: events,
		log:    logging.OrNop(log).With("provider", p.Name()),
	}
}

func (r *recordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)
	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    r.inner.Name(),
		Model:       r.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		r.log.Warn("llm request failed", "purpose", data.Purpose, "latency_ms", data.LatencyMs, "error", err)
	} else {
		r.log.Debug("llm request", "purpose", data.Purpose, "model", data.Model,
			"input_tokens", data.InputTokens, "output_tokens", data.OutputTokens, "latency_ms", data.LatencyMs)
	}

	if r.events != nil {
		if recErr := r.events.AppendLLMRequest(context.WithoutCancel(ctx), data); recErr != nil {
			r.log.Warn("llm request not recorded", "error", recErr)
		}
	}
	return resp, err
}

func (r *recordingProvider) Name() string    { return r.inner.Name() }
func (r *recordingProvider) ModelID() string { return r.inner.ModelID() }

// describeRequest renders req for the request log.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
