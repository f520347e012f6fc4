package session

import (
	"context"
	"time"

	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/store"
)

// RecordCompletion applies the end-of-session updates for userID and fills
// the matching fields of sum. Each failed update is logged and returned
// as a user-facing warning; the session event is log-only.
func RecordCompletion(ctx context.Context, deps Deps, userID string, now time.Time, sum *Summary) []string {
	log := logging.OrNop(deps.Logger).With("session", sum.SessionID)
	var warnings []string

	if deps.Streaks != nil {
		res, err := deps.Streaks.Evaluate(ctx, userID, now)
		if err != nil {
			log.Warn("streak update failed", "error", err)
			warnings = append(warnings, "Streak not updated.")
		} else {
			sum.Streak = &res
		}
	}

	if deps.Badges != nil {
		_, earned, err := deps.Badges.Refresh(ctx, userID)
		if err != nil {
			log.Warn("badge refresh failed", "error", err)
			warnings = append(warnings, "Badges not updated.")
		} else {
			sum.NewBadges = earned
		}
	}

	if deps.Goals != nil {
		upd, err := deps.Goals.RecordSession(ctx, userID, now)
		if err != nil {
			log.Warn("daily goal update failed", "error", err)
			warnings = append(warnings, "Daily goal not updated.")
		} else {
			sum.Goal = &upd
		}
	}

	if deps.Events != nil {
		err := deps.Events.AppendSession(ctx, store.SessionEventData{
			SessionID:   sum.SessionID,
			UserID:      userID,
			LevelID:     sum.LevelID,
			Total:       sum.Total,
			Correct:     sum.Correct,
			Duration:    sum.Duration,
			CompletedAt: now,
		})
		if err != nil {
			log.Warn("session event not recorded", "error", err)
		}
	}

	log.Info("session completed", "user", userID, "level", sum.LevelID,
		"correct", sum.Correct, "total", sum.Total)
	return warnings
}
