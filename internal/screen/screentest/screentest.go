// Package screentest wires a screen.Env over an in-memory store and runs
// Bubble Tea commands synchronously for screen tests. Timers never wait:
// they come back as Timer messages for the test to Fire.
package screentest

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
	"github.com/abhisek/mathdrill/internal/tutor"
)

// Now is the starting clock of every Env built here.
var Now = time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

// Fixture is an Env plus handles on what it was built from.
type Fixture struct {
	Env   *screen.Env
	Store *store.Store
	LLM   *llm.MockProvider

	now time.Time
}

// Timer is a message scheduled through Env.Tick, due at At.
type Timer struct {
	At  time.Time
	Msg tea.Msg
}

// NewEnv builds an Env for userID ("" for a guest) with a seeded
// generator, a goal target of 3 and a mock tutor.
func NewEnv(t *testing.T, userID string) *Fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:screens_%s?mode=memory", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	catalog := levels.Default()
	streaks := streak.NewEvaluator(st.StreakRepo(), time.UTC)
	badgeSvc := badges.NewService(nil, st.BadgeRepo(), streaks)
	goalSvc := goals.NewService(st.GoalRepo(), 3, time.UTC)
	mock := llm.NewMockProvider()

	identity := auth.Anonymous()
	if userID != "" {
		identity = auth.User(userID)
	}

	f := &Fixture{Store: st, LLM: mock, now: Now}
	f.Env = &screen.Env{
		Identity:    identity,
		Catalog:     catalog,
		SessionSize: 3,
		Session: session.Deps{
			Questions: problemgen.New(problemgen.WithSeed(11)),
			Tracker:   mastery.NewTracker(st.PerformanceRepo()),
			Streaks:   streaks,
			Badges:    badgeSvc,
			Goals:     goalSvc,
			Events:    st.EventRepo(),
			Advisory:  &auth.Advisory{},
		},
		Progress: &progress.Loader{
			Catalog:     catalog,
			Performance: st.PerformanceRepo(),
			Streaks:     streaks,
			Badges:      badgeSvc,
			Goals:       goalSvc,
			Sessions:    st,
		},
		Tutor:        tutor.New(mock),
		Clock:        f.Now,
		Ticker:       f.tick,
		StaticCursor: true,
	}
	return f
}

// Now is the fixture clock. It starts at Now and moves when a timer
// fires or on Advance.
func (f *Fixture) Now() time.Time {
	return f.now
}

// Advance moves the fixture clock forward by d.
func (f *Fixture) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *Fixture) tick(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	at := f.now.Add(d)
	return func() tea.Msg {
		return Timer{At: at, Msg: fn(at)}
	}
}

// Fire delivers the timers among msgs to sc, earliest first, moving the
// clock to each one's due time. It returns what Pump returns, including
// any timers scheduled in turn.
func (f *Fixture) Fire(sc screen.Screen, msgs []tea.Msg) (screen.Screen, []tea.Msg) {
	var timers []Timer
	for _, msg := range msgs {
		if t, ok := msg.(Timer); ok {
			timers = append(timers, t)
		}
	}
	sort.SliceStable(timers, func(i, j int) bool { return timers[i].At.Before(timers[j].At) })

	var out []tea.Msg
	for _, t := range timers {
		if t.At.After(f.now) {
			f.now = t.At
		}
		msg := t.Msg
		var got []tea.Msg
		sc, got = Pump(sc, func() tea.Msg { return msg })
		out = append(out, got...)
	}
	return sc, out
}

// Drain runs cmd and every command it batches, returning the messages
// they produce.
func Drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, Drain(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// Key builds a key press for a printable rune.
func Key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// Special builds a key press for a named key such as tea.KeyEnter.
func Special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Pump runs cmd, feeds the resulting messages back into sc until nothing
// is left, and returns the messages meant for the router or the app
// along with any timers. Spinner frames are dropped.
func Pump(sc screen.Screen, cmd tea.Cmd) (screen.Screen, []tea.Msg) {
	var out []tea.Msg
	queue := Drain(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case spinner.TickMsg:
			continue
		case router.PushScreenMsg, router.PopScreenMsg, router.ReplaceScreenMsg,
			router.PopToRootMsg, screen.StatsMsg, tea.QuitMsg, Timer:
			out = append(out, msg)
			continue
		}
		var next tea.Cmd
		sc, next = sc.Update(msg)
		queue = append(queue, Drain(next)...)
	}
	return sc, out
}

// Press sends key presses to sc, pumping after each one.
func Press(sc screen.Screen, keys ...tea.KeyPressMsg) (screen.Screen, []tea.Msg) {
	var out []tea.Msg
	for _, k := range keys {
		var cmd tea.Cmd
		sc, cmd = sc.Update(k)
		var msgs []tea.Msg
		sc, msgs = Pump(sc, cmd)
		out = append(out, msgs...)
	}
	return sc, out
}

// Type converts s into key presses.
func Type(s string) []tea.KeyPressMsg {
	keys := make([]tea.KeyPressMsg, 0, len(s))
	for _, r := range s {
		keys = append(keys, Key(r))
	}
	return keys
}
