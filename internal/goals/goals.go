// Package goals tracks the per-day practice goal.
package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/mathdrill/internal/streak"
)

// DefaultTarget is the number of completed sessions that meets the goal.
const DefaultTarget = 10

// Goal is one user's progress for one calendar day.
type Goal struct {
	UserID  string      `json:"-"`
	Day     streak.Date `json:"-"`
	Target  int         `json:"target"`
	Current int         `json:"current"`
}

// Completed reports whether the goal has been met.
func (g Goal) Completed() bool {
	return g.Current >= g.Target
}

// Percent returns progress toward the target, 0-100.
func (g Goal) Percent() float64 {
	if g.Target <= 0 {
		return 0
	}
	return float64(min(g.Current, g.Target)) * 100 / float64(g.Target)
}

// Repo stores daily goal rows.
type Repo interface {
	// GetGoal returns the row for (userID, day), or nil.
	GetGoal(ctx context.Context, userID string, day streak.Date) (*Goal, error)

	// IncrementGoal adds delta to the row for (userID, day), creating it
	// with target if absent, and caps Current at the target. It returns
	// the row before and after the change.
	IncrementGoal(ctx context.Context, userID string, day streak.Date, target, delta int) (before, after Goal, err error)
}

// Update is the outcome of RecordSession.
type Update struct {
	Goal Goal
	// JustCompleted is true only for the session that reached the target.
	JustCompleted bool
}

// Service advances daily goals.
type Service struct {
	repo   Repo
	target int
	loc    *time.Location
}

// NewService creates a Service. Non-positive targets fall back to
// DefaultTarget; a nil loc means time.Local.
func NewService(repo Repo, target int, loc *time.Location) *Service {
	if target <= 0 {
		target = DefaultTarget
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, target: target, loc: loc}
}

// RecordSession counts one completed session toward today's goal.
func (s *Service) RecordSession(ctx context.Context, userID string, now time.Time) (Update, error) {
	day := streak.DateOf(now, s.loc)
	before, after, err := s.repo.IncrementGoal(ctx, userID, day, s.target, 1)
	if err != nil {
		return Update{}, fmt.Errorf("increment goal: %w", err)
	}
	return Update{Goal: after, JustCompleted: after.Completed() && !before.Completed()}, nil
}

// Today returns today's goal, or an empty one if nothing was recorded.
func (s *Service) Today(ctx context.Context, userID string, now time.Time) (Goal, error) {
	day := streak.DateOf(now, s.loc)
	g, err := s.repo.GetGoal(ctx, userID, day)
	if err != nil {
		return Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if g == nil {
		return Goal{UserID: userID, Day: day, Target: s.target}, nil
	}
	return *g, nil
}
