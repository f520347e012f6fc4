package session

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
)

const (
	// DefaultSize is the number of questions in a session.
	DefaultSize = 5

	// FeedbackDelay is how long feedback stays up before the next question.
	FeedbackDelay = 1500 * time.Millisecond

	// writeTimeout bounds persistence calls that outlive the screen.
	writeTimeout = 10 * time.Second
)

var (
	ErrNoQuestions = errors.New("no questions generated")
	ErrEmptyInput  = errors.New("no answer entered")
	ErrWrongPhase  = errors.New("not allowed in this phase")
	ErrAbandoned   = errors.New("session abandoned")
	ErrTooEarly    = errors.New("feedback still showing")
)

// Phase is where the session is in its question loop.
type Phase int

const (
	PhaseLoading  Phase = iota // Generating questions
	PhaseActive                // Waiting for an answer
	PhaseFeedback              // Showing the result of the last answer
	PhaseComplete              // All questions answered
	PhaseError                 // Could not start
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseFeedback:
		return "feedback"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// QuestionSource produces the question set for a level.
type QuestionSource interface {
	GenerateSet(op problemgen.Operation, count, min, max int) ([]problemgen.Question, error)
}

// PerformanceTracker records answers and reports per-fact flags.
type PerformanceTracker interface {
	RecordAnswer(ctx context.Context, userID string, fact problemgen.Fact, isCorrect bool, elapsed time.Duration) (mastery.Record, error)
	Lookup(ctx context.Context, userID string, facts []problemgen.Fact) (map[string]mastery.Flags, error)
}

type StreakEvaluator interface {
	Evaluate(ctx context.Context, userID string, now time.Time) (streak.Result, error)
}

type BadgeRefresher interface {
	Refresh(ctx context.Context, userID string) (all, newlyEarned []badges.Badge, err error)
}

type GoalRecorder interface {
	RecordSession(ctx context.Context, userID string, now time.Time) (goals.Update, error)
}

type EventRecorder interface {
	AppendSession(ctx context.Context, data store.SessionEventData) error
}

// Deps are the collaborators of a session. Only Questions is required;
// a nil collaborator is skipped.
type Deps struct {
	Questions QuestionSource
	Tracker   PerformanceTracker
	Streaks   StreakEvaluator
	Badges    BadgeRefresher
	Goals     GoalRecorder
	Events    EventRecorder

	// Advisory hands out the anonymous notice once per process.
	Advisory *auth.Advisory
	Logger   *logging.Logger
}

// Config tunes a session.
type Config struct {
	Size int
}

// Feedback describes the outcome of a submitted answer.
type Feedback struct {
	QuestionID string
	Fact       problemgen.Fact
	Correct    bool
	Given      int
	Expected   int
	Elapsed    time.Duration
	// Last is true when no questions remain after this one.
	Last bool
}

// WriteFunc persists one answer. It is safe to run on any goroutine and
// must not touch the Session; hand its result to Confirm.
type WriteFunc func(ctx context.Context) WriteResult

// WriteResult is the outcome of a WriteFunc.
type WriteResult struct {
	SessionID  string
	QuestionID string
	Fact       problemgen.Fact
	Record     mastery.Record
	Err        error
}

// Summary is shown when a session finishes.
type Summary struct {
	SessionID string
	LevelID   string
	Correct   int
	Total     int
	Accuracy  float64
	Duration  time.Duration

	// Streak, Goal and NewBadges are empty for anonymous users and when
	// the corresponding update failed.
	Streak    *streak.Result
	NewBadges []badges.Badge
	Goal      *goals.Update

	Questions []problemgen.Question
	Warnings  []string
	Advisory  string
}
