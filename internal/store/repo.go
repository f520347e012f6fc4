package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int       // id > After
	Before int       // id < Before
	From   time.Time // created_at >= From
	To     time.Time // created_at <= To
}

// SessionEventData captures one completed practice session.
type SessionEventData struct {
	SessionID   string
	UserID      string
	LevelID     string
	Total       int
	Correct     int
	Duration    time.Duration
	CompletedAt time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int
	CreatedAt time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to logged events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendSession records a completed practice session.
	AppendSession(ctx context.Context, data SessionEventData) error
}
