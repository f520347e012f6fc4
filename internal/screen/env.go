package screen

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/tutor"
	"github.com/abhisek/mathdrill/internal/ui/layout"
)

// ProgressLoader reads the overview shown on the home and progress screens.
type ProgressLoader interface {
	Load(ctx context.Context, userID string, now time.Time) (*progress.Overview, error)
}

// Tutor answers free-form questions and explains facts.
type Tutor interface {
	Available() bool
	AskQuestion(ctx context.Context, question string) (string, error)
	QuestionHelp(ctx context.Context, f problemgen.Fact) (tutor.Help, error)
}

// Env is what every screen may need. It is built once by the app and
// passed down explicitly.
type Env struct {
	Identity    auth.Identity
	Catalog     *levels.Catalog
	Session     session.Deps
	SessionSize int
	// Progress is nil when there is no store.
	Progress ProgressLoader
	// Tutor is nil when no LLM provider is configured.
	Tutor  Tutor
	Logger *logging.Logger
	Clock  func() time.Time
	// Ticker schedules timed messages. Nil means tea.Tick.
	Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
	// StaticCursor stops text inputs from blinking.
	StaticCursor bool
}

// Now returns the current time from Clock, or time.Now.
func (e *Env) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// Tick returns a command that calls fn once d has passed.
func (e *Env) Tick(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	if e.Ticker != nil {
		return e.Ticker(d, fn)
	}
	return tea.Tick(d, fn)
}

// Log never returns nil.
func (e *Env) Log() *logging.Logger {
	return logging.OrNop(e.Logger)
}

// TutorAvailable reports whether help and ask can be offered.
func (e *Env) TutorAvailable() bool {
	return e.Tutor != nil && e.Tutor.Available()
}

// StatsMsg updates the header. Screens send it after loading an overview.
type StatsMsg struct {
	Stats layout.Stats
}

// StatsFrom converts an overview into header stats.
func StatsFrom(id auth.Identity, o *progress.Overview) layout.Stats {
	if id.IsAnonymous() || o == nil {
		return layout.Stats{Anonymous: true}
	}
	return layout.Stats{
		Streak:      o.Streak.Current,
		GoalCurrent: o.Goal.Current,
		GoalTarget:  o.Goal.Target,
	}
}
