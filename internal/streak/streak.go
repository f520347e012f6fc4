// Package streak computes day-granularity practice streaks.
package streak

import "time"

// MilestoneEvery is the streak length interval celebrated in the summary.
const MilestoneEvery = 5

// State is a user's streak row.
type State struct {
	UserID           string
	CurrentStreak    int
	LongestStreak    int
	LastPracticeDate Date
	UpdatedAt        time.Time
}

// Advance computes the streak after a completed practice on today.
//
// A nil prev starts a streak at 1. Practicing again on the same day is a
// no-op and reports changed=false. Practicing the day after the last
// practice extends the streak; any other gap restarts it at 1. The
// longest streak never decreases.
func Advance(prev *State, today Date) (next State, changed bool) {
	if prev == nil {
		return State{CurrentStreak: 1, LongestStreak: 1, LastPracticeDate: today}, true
	}

	next = *prev
	switch {
	case prev.LastPracticeDate == today:
		return next, false
	case !prev.LastPracticeDate.IsZero() && prev.LastPracticeDate.AddDays(1) == today:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}

	next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	next.LastPracticeDate = today
	return next, true
}

// IsMilestone reports whether a streak of n days is worth celebrating.
func IsMilestone(n int) bool {
	return n > 0 && n%MilestoneEvery == 0
}

// NextMilestone returns the next milestone strictly above current.
func NextMilestone(current int) int {
	if current < 0 {
		current = 0
	}
	return (current/MilestoneEvery + 1) * MilestoneEvery
}

// Active reports whether the streak is still alive on today, i.e. the
// user practiced today or yesterday.
func (s State) Active(today Date) bool {
	if s.LastPracticeDate.IsZero() {
		return false
	}
	return s.LastPracticeDate == today || s.LastPracticeDate.AddDays(1) == today
}
