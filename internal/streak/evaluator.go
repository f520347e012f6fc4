package streak

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrContention is returned when the compare-and-swap loop keeps losing
// to concurrent writers.
var ErrContention = errors.New("streak update contention")

// Repo persists streak rows with the two conditional writes the evaluator
// needs to stay atomic per user.
type Repo interface {
	// GetStreak returns the user's row, or nil if none exists.
	GetStreak(ctx context.Context, userID string) (*State, error)

	// InsertStreak creates the row only if none exists for the user.
	InsertStreak(ctx context.Context, s State) (inserted bool, err error)

	// SwapStreak overwrites the row only if its last practice date still
	// equals expectedLast.
	SwapStreak(ctx context.Context, s State, expectedLast Date) (swapped bool, err error)
}

// Result is the outcome of one evaluation.
type Result struct {
	State     State
	Changed   bool
	Milestone bool
}

// Evaluator applies Advance against a Repo.
type Evaluator struct {
	repo        Repo
	loc         *time.Location
	maxAttempts int
}

// NewEvaluator creates an Evaluator that cuts days in loc. A nil loc means
// time.Local.
func NewEvaluator(repo Repo, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{repo: repo, loc: loc, maxAttempts: 5}
}

// Location returns the zone used to derive calendar days.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Today returns the calendar day of now in the evaluator's zone.
func (e *Evaluator) Today(now time.Time) Date {
	return DateOf(now, e.loc)
}

// Evaluate records a completed practice at now. Concurrent calls for the
// same user serialize through the repo's conditional writes, so a day is
// counted at most once.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, now time.Time) (Result, error) {
	today := e.Today(now)

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		prev, err := e.repo.GetStreak(ctx, userID)
		if err != nil {
			return Result{}, fmt.Errorf("load streak: %w", err)
		}

		next, changed := Advance(prev, today)
		next.UserID = userID
		if !changed {
			return Result{State: next}, nil
		}
		next.UpdatedAt = now

		var ok bool
		if prev == nil {
			ok, err = e.repo.InsertStreak(ctx, next)
		} else {
			ok, err = e.repo.SwapStreak(ctx, next, prev.LastPracticeDate)
		}
		if err != nil {
			return Result{}, fmt.Errorf("save streak: %w", err)
		}
		if ok {
			return Result{State: next, Changed: true, Milestone: IsMilestone(next.CurrentStreak)}, nil
		}
	}

	return Result{}, fmt.Errorf("%w for user %s", ErrContention, userID)
}

// Current returns the stored streak without modifying it. Users who never
// practiced get a zero State.
func (e *Evaluator) Current(ctx context.Context, userID string) (State, error) {
	s, err := e.repo.GetStreak(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("load streak: %w", err)
	}
	if s == nil {
		return State{UserID: userID}, nil
	}
	return *s, nil
}
