// Package progress assembles the learner's overview shown by the stats
// command, the progress screen and the HTTP API.
package progress

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
)

// MaxStruggling caps the struggling facts listed in an overview.
const MaxStruggling = 10

type PerformanceLister interface {
	ListPerformance(ctx context.Context, userID string) ([]mastery.Record, error)
}

type StreakReader interface {
	Current(ctx context.Context, userID string) (streak.State, error)
	Today(now time.Time) streak.Date
}

type BadgeLister interface {
	All(ctx context.Context, userID string) ([]badges.Badge, error)
}

type GoalReader interface {
	Today(ctx context.Context, userID string, now time.Time) (goals.Goal, error)
}

type SessionLister interface {
	RecentSessions(ctx context.Context, userID string, limit int) ([]store.SessionEventData, error)
}

// LevelProgress is mastery within one level's fact space.
type LevelProgress struct {
	Level    levels.Level `json:"level"`
	Mastered int          `json:"mastered"`
	Total    int          `json:"total"`
	Percent  float64      `json:"percent"`
}

// Totals aggregates every record of the user.
type Totals struct {
	Facts    int     `json:"facts"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Mastered int     `json:"mastered"`
	Accuracy float64 `json:"accuracy"`
}

// StreakView is the streak plus derived display values.
type StreakView struct {
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	LastPractice  string `json:"last_practice,omitempty"`
	ActiveToday   bool   `json:"active_today"`
	NextMilestone int    `json:"next_milestone"`
}

// Overview is everything the progress views render.
type Overview struct {
	UserID     string                   `json:"user_id"`
	Streak     StreakView               `json:"streak"`
	Badges     []badges.Badge           `json:"badges"`
	Levels     []LevelProgress          `json:"levels"`
	Struggling []mastery.Record         `json:"struggling"`
	Goal       goals.Goal               `json:"goal"`
	Totals     Totals                   `json:"totals"`
	Recent     []store.SessionEventData `json:"recent_sessions"`
}

// Loader reads overviews.
type Loader struct {
	Catalog     *levels.Catalog
	Performance PerformanceLister
	Streaks     StreakReader
	Badges      BadgeLister
	Goals       GoalReader
	// Sessions is optional.
	Sessions    SessionLister
	RecentLimit int
}

// Load fetches every part of the overview concurrently. The first error
// cancels the rest.
func (l *Loader) Load(ctx context.Context, userID string, now time.Time) (*Overview, error) {
	ov := &Overview{UserID: userID}
	var recs []mastery.Record
	var st streak.State

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = l.Performance.ListPerformance(gctx, userID)
		if err != nil {
			return fmt.Errorf("performance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		st, err = l.Streaks.Current(gctx, userID)
		if err != nil {
			return fmt.Errorf("streak: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ov.Badges, err = l.Badges.All(gctx, userID)
		if err != nil {
			return fmt.Errorf("badges: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ov.Goal, err = l.Goals.Today(gctx, userID, now)
		if err != nil {
			return fmt.Errorf("daily goal: %w", err)
		}
		return nil
	})
	if l.Sessions != nil {
		g.Go(func() error {
			limit := l.RecentLimit
			if limit <= 0 {
				limit = 5
			}
			var err error
			ov.Recent, err = l.Sessions.RecentSessions(gctx, userID, limit)
			if err != nil {
				return fmt.Errorf("recent sessions: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ov.Streak = streakView(st, l.Streaks.Today(now))
	ov.Levels = LevelBreakdown(l.Catalog, recs)
	ov.Totals = Summarize(recs)
	ov.Struggling = struggling(recs)
	return ov, nil
}

func streakView(st streak.State, today streak.Date) StreakView {
	v := StreakView{
		Current:       st.CurrentStreak,
		Longest:       st.LongestStreak,
		ActiveToday:   !st.LastPracticeDate.IsZero() && st.LastPracticeDate == today,
		NextMilestone: streak.NextMilestone(st.CurrentStreak),
	}
	if !st.LastPracticeDate.IsZero() {
		v.LastPractice = st.LastPracticeDate.String()
	}
	return v
}

// LevelBreakdown computes mastery per level in catalog order.
func LevelBreakdown(catalog *levels.Catalog, recs []mastery.Record) []LevelProgress {
	if catalog == nil {
		return nil
	}
	mastered := mastery.MasteredSet(recs)
	var out []LevelProgress
	for _, lvl := range catalog.All() {
		space := lvl.FactSpace()
		n := 0
		for _, f := range space {
			if mastered[f.Key()] {
				n++
			}
		}
		out = append(out, LevelProgress{
			Level:    lvl,
			Mastered: n,
			Total:    len(space),
			Percent:  lvl.MasteryPercent(mastered),
		})
	}
	return out
}

// Summarize totals recs.
func Summarize(recs []mastery.Record) Totals {
	var t Totals
	for _, r := range recs {
		t.Facts++
		t.Attempts += r.Attempts
		t.Correct += r.CorrectAttempts
		if r.IsMastered() {
			t.Mastered++
		}
	}
	if t.Attempts > 0 {
		t.Accuracy = float64(t.Correct) / float64(t.Attempts)
	}
	return t
}

func struggling(recs []mastery.Record) []mastery.Record {
	var out []mastery.Record
	for _, r := range recs {
		if r.IsStruggling() {
			out = append(out, r)
		}
	}
	mastery.SortStruggling(out)
	if len(out) > MaxStruggling {
		out = out[:MaxStruggling]
	}
	return out
}
