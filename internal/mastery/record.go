// Package mastery tracks per-fact answer counters and derives mastery and
// struggle flags from them.
package mastery

import (
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

const (
	// FastThreshold is the latency under which a correct answer counts as
	// fast.
	FastThreshold = 1500 * time.Millisecond

	// MasteryThreshold is the number of fast correct answers that makes a
	// fact mastered.
	MasteryThreshold = 5

	// StruggleThreshold is the run of incorrect answers that marks a fact
	// as struggling.
	StruggleThreshold = 2
)

// Record holds the durable counters for one (user, fact) pair.
type Record struct {
	UserID string          `json:"user_id"`
	Fact   problemgen.Fact `json:"fact"`
	Answer int             `json:"answer"`

	Attempts             int       `json:"attempts"`
	CorrectAttempts      int       `json:"correct_attempts"`
	FastCorrectAttempts  int       `json:"fast_correct_attempts"`
	ConsecutiveIncorrect int       `json:"consecutive_incorrect"`
	LastAttemptedAt      time.Time `json:"last_attempted_at"`
}

// IsMastered reports whether the fact has been answered correctly and
// quickly at least MasteryThreshold times.
func (r Record) IsMastered() bool {
	return r.FastCorrectAttempts >= MasteryThreshold
}

// IsStruggling reports whether the last StruggleThreshold or more answers
// were all incorrect. It is independent of IsMastered.
func (r Record) IsStruggling() bool {
	return r.ConsecutiveIncorrect >= StruggleThreshold
}

// Flags snapshots the derived state of r.
func (r Record) Flags() Flags {
	return Flags{
		Attempts:             r.Attempts,
		CorrectAttempts:      r.CorrectAttempts,
		FastCorrectAttempts:  r.FastCorrectAttempts,
		ConsecutiveIncorrect: r.ConsecutiveIncorrect,
		IsMastered:           r.IsMastered(),
		IsStruggling:         r.IsStruggling(),
	}
}

// Accuracy returns CorrectAttempts/Attempts, or 0 before any attempt.
func (r Record) Accuracy() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.CorrectAttempts) / float64(r.Attempts)
}

// Flags is the read-side view of a Record attached to questions and API
// responses. It is always computed from a Record, never stored.
type Flags struct {
	Attempts             int  `json:"attempts"`
	CorrectAttempts      int  `json:"correct_attempts"`
	FastCorrectAttempts  int  `json:"fast_correct_attempts"`
	ConsecutiveIncorrect int  `json:"consecutive_incorrect"`
	IsMastered           bool `json:"is_mastered"`
	IsStruggling         bool `json:"is_struggling"`
}

// Apply returns old updated with one answer. A zero Record stands for a
// fact with no prior attempts.
func Apply(old Record, isCorrect bool, elapsed time.Duration, now time.Time) Record {
	next := old
	next.Attempts++
	next.LastAttemptedAt = now

	if isCorrect {
		next.CorrectAttempts++
		if elapsed < FastThreshold {
			next.FastCorrectAttempts++
		}
		next.ConsecutiveIncorrect = 0
	} else {
		next.ConsecutiveIncorrect++
	}
	return next
}
