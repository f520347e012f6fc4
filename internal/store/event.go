package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on the session and LLM request tables.
type eventRepo struct {
	s *Store
}

// EventRepo returns the event repository.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s: s}
}

// LLMEvents returns a reader over logged LLM requests.
func (s *Store) LLMEvents() *LLMEventReader {
	return &LLMEventReader{s: s}
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	ins := r.s.builder().Insert(tableLLMRequests).
		Columns("provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body", "created_at").
		Values(data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody, now())
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSession(ctx context.Context, data SessionEventData) error {
	completed := data.CompletedAt
	if completed.IsZero() {
		completed = now()
	}
	ins := r.s.builder().Insert(tableSessions).
		Columns("session_id", "user_id", "level_id", "total", "correct", "duration_ms", "completed_at").
		Values(data.SessionID, data.UserID, data.LevelID, data.Total, data.Correct,
			data.Duration.Milliseconds(), completed.UTC())
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// RecentSessions returns the user's latest completed sessions, newest
// first.
func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]SessionEventData, error) {
	b := s.builder()
	sel := b.Select("session_id", "user_id", "level_id", "total", "correct", "duration_ms", "completed_at").
		From(b.Table(tableSessions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("completed_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	var out []SessionEventData
	err := query(ctx, s.db, sel, func(rows *sql.Rows) error {
		var (
			d  SessionEventData
			ms int64
		)
		if err := rows.Scan(&d.SessionID, &d.UserID, &d.LevelID, &d.Total, &d.Correct, &ms, &d.CompletedAt); err != nil {
			return err
		}
		d.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return out, nil
}

// LLMEventReader queries and prunes logged LLM requests.
type LLMEventReader struct {
	s *Store
}

var llmEventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

func scanLLMEvent(rows *sql.Rows) (LLMRequestEvent, error) {
	var e LLMRequestEvent
	err := rows.Scan(&e.ID, &e.CreatedAt, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	return e, err
}

// List returns events newest first, filtered by opts.
func (r *LLMEventReader) List(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := r.s.builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table(tableLLMRequests)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("id", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	var out []LLMRequestEvent
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list LLM events: %w", err)
	}
	return out, nil
}

// Get returns one event by id, or nil.
func (r *LLMEventReader) Get(ctx context.Context, id int) (*LLMRequestEvent, error) {
	b := r.s.builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table(tableLLMRequests)).
		Where(entsql.EQ("id", id))

	var out *LLMRequestEvent
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		e, err := scanLLMEvent(rows)
		out = &e
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return out, nil
}

// Prune deletes events created before cutoff and returns how many were
// removed.
func (r *LLMEventReader) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	del := r.s.builder().Delete(tableLLMRequests).
		Where(entsql.LT("created_at", cutoff.UTC()))
	n, err := exec(ctx, r.s.db, del)
	if err != nil {
		return 0, fmt.Errorf("prune LLM events: %w", err)
	}
	return n, nil
}
