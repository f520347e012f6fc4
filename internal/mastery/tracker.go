package mastery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// ErrNotSaved marks an answer whose counters could not be persisted. The
// practice session carries on; callers surface it as a warning.
var ErrNotSaved = errors.New("progress not saved")

// Repo is the storage the tracker needs.
type Repo interface {
	// UpdatePerformance loads the record for (userID, fact), or a zero
	// record if none exists, passes it to fn and upserts the result in
	// one transaction.
	UpdatePerformance(ctx context.Context, userID string, fact problemgen.Fact, fn func(Record) Record) (Record, error)

	// ListPerformance returns every record for userID.
	ListPerformance(ctx context.Context, userID string) ([]Record, error)
}

// Tracker applies answers to per-fact records.
type Tracker struct {
	repo Repo
	now  func() time.Time
}

// NewTracker creates a Tracker over repo.
func NewTracker(repo Repo) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// WithClock overrides the clock used for LastAttemptedAt.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// RecordAnswer applies one answer to the fact's counters and persists
// them. One write per answer; there is no batching.
func (t *Tracker) RecordAnswer(ctx context.Context, userID string, fact problemgen.Fact, isCorrect bool, elapsed time.Duration) (Record, error) {
	now := t.now()
	rec, err := t.repo.UpdatePerformance(ctx, userID, fact, func(old Record) Record {
		old.UserID = userID
		old.Fact = fact
		old.Answer = fact.Answer()
		return Apply(old, isCorrect, elapsed, now)
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: record %s: %w", ErrNotSaved, fact, err)
	}
	return rec, nil
}

// Lookup returns flags for the given facts keyed by Fact.Key. Facts with
// no record are absent from the map.
func (t *Tracker) Lookup(ctx context.Context, userID string, facts []problemgen.Fact) (map[string]Flags, error) {
	recs, err := t.repo.ListPerformance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}

	want := make(map[string]bool, len(facts))
	for _, f := range facts {
		want[f.Key()] = true
	}

	out := make(map[string]Flags, len(facts))
	for _, r := range recs {
		if k := r.Fact.Key(); want[k] {
			out[k] = r.Flags()
		}
	}
	return out, nil
}

// Struggling lists the user's struggling facts, longest losing run first.
func (t *Tracker) Struggling(ctx context.Context, userID string) ([]Record, error) {
	recs, err := t.repo.ListPerformance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	var out []Record
	for _, r := range recs {
		if r.IsStruggling() {
			out = append(out, r)
		}
	}
	SortStruggling(out)
	return out, nil
}

// SortStruggling orders recs by longest losing run, then most recent.
func SortStruggling(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].ConsecutiveIncorrect != recs[j].ConsecutiveIncorrect {
			return recs[i].ConsecutiveIncorrect > recs[j].ConsecutiveIncorrect
		}
		return recs[i].LastAttemptedAt.After(recs[j].LastAttemptedAt)
	})
}

// MasteredKeys returns the set of mastered fact keys for userID.
func (t *Tracker) MasteredKeys(ctx context.Context, userID string) (map[string]bool, error) {
	recs, err := t.repo.ListPerformance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	return MasteredSet(recs), nil
}

// MasteredSet returns the keys of the mastered records in recs.
func MasteredSet(recs []Record) map[string]bool {
	out := make(map[string]bool)
	for _, r := range recs {
		if r.IsMastered() {
			out[r.Fact.Key()] = true
		}
	}
	return out
}
