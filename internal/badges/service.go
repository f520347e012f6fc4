package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/streak"
)

// Repo stores the mastery aggregates and the set of badges the user has
// already been told about. The stored set is only used to decide what is
// new; it is never treated as ground truth.
type Repo interface {
	MasteryCounts(ctx context.Context, userID string) (map[problemgen.Operation]int, error)
	EarnedBadges(ctx context.Context, userID string) (map[string]bool, error)
	MarkEarned(ctx context.Context, userID string, ids []string, at time.Time) error
}

// StreakReader supplies the current streak.
type StreakReader interface {
	Current(ctx context.Context, userID string) (streak.State, error)
}

// Service evaluates and records badges.
type Service struct {
	defs    []Definition
	repo    Repo
	streaks StreakReader
	now     func() time.Time
}

// NewService creates a Service with the given definitions. A nil defs
// slice means DefaultDefinitions.
func NewService(defs []Definition, repo Repo, streaks StreakReader) *Service {
	if defs == nil {
		defs = DefaultDefinitions()
	}
	return &Service{defs: defs, repo: repo, streaks: streaks, now: time.Now}
}

// Stats loads the aggregates for userID.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	st, err := s.streaks.Current(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	counts, err := s.repo.MasteryCounts(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("mastery counts: %w", err)
	}
	return Stats{CurrentStreak: st.CurrentStreak, MasteredByOperation: counts}, nil
}

// All evaluates every badge for userID without recording anything.
func (s *Service) All(ctx context.Context, userID string) ([]Badge, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Evaluate(s.defs, stats), nil
}

// Refresh evaluates every badge, records newly completed ones and returns
// both the full list and the new subset.
func (s *Service) Refresh(ctx context.Context, userID string) (all, newlyEarned []Badge, err error) {
	all, err = s.All(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	known, err := s.repo.EarnedBadges(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("earned badges: %w", err)
	}

	newlyEarned = NewlyEarned(known, all)
	if len(newlyEarned) == 0 {
		return all, nil, nil
	}

	ids := make([]string, len(newlyEarned))
	for i, b := range newlyEarned {
		ids[i] = b.ID
	}
	if err := s.repo.MarkEarned(ctx, userID, ids, s.now()); err != nil {
		return nil, nil, fmt.Errorf("mark earned: %w", err)
	}
	return all, newlyEarned, nil
}
