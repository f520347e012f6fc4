package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func TestRetry(t *testing.T) {
	ok := MockResponse{Content: json.RawMessage(`"ok"`)}
	bad := MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`x`), Err: errors.New("bad")}}

	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{ok}, false, 1},
		{"transient then success", []MockResponse{down(), ok}, false, 2},
		{"all attempts fail", []MockResponse{down(), down(), down(), ok}, true, 3},
		{"truncation not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, ok}, true, 1},
		{"unauthorized not retried", []MockResponse{{Err: &ErrUnauthorized{Err: errors.New("401")}}, ok}, true, 1},
		{"invalid retried once", []MockResponse{bad, bad, ok}, true, 2},
		{"rate limit honours retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, ok}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	mock := NewMockProvider(down(), down(), down())
	cfg := fastRetry()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, cfg).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_Delegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), RetryConfig{})
	if p.ModelID() != "mock" || p.Name() != ProviderMock {
		t.Fatalf("got %q/%q", p.Name(), p.ModelID())
	}
}

func TestTimeout(t *testing.T) {
	slow := &blockingProvider{}
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingProvider) Name() string    { return "blocking" }
func (blockingProvider) ModelID() string { return "blocking" }
