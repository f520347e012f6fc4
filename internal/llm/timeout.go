package llm

import (
	"context"
	"time"
)

type timeoutProvider struct {
	inner Provider
	d     time.Duration
}

// WithTimeout bounds every Generate call, retries included.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, d: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) Name() string    { return t.inner.Name() }
func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
