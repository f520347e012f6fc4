// Package session is the screen that runs one drill.
package session

import (
	"context"
	"errors"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/screens/summary"
	sess "github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/tutor"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// helpState is the tutor panel for the current fact.
type helpState struct {
	fact    problemgen.Fact
	loading bool
	help    tutor.Help
	err     error
}

// SessionScreen drives a session.Session from key presses. Persistence
// and tutor calls run in commands; the screen only folds their results
// back in.
type SessionScreen struct {
	env   *screen.Env
	level levels.Level
	s     *sess.Session

	last        *sess.Feedback
	quitConfirm bool
	finishing   bool
	completeErr error
	help        *helpState
	spinner     spinner.Model
}

var (
	_ screen.Screen          = (*SessionScreen)(nil)
	_ screen.KeyHintProvider = (*SessionScreen)(nil)
	_ screen.EscapeHandler   = (*SessionScreen)(nil)
)

func New(env *screen.Env, level levels.Level) *SessionScreen {
	return &SessionScreen{
		env:     env,
		level:   level,
		s:       sess.New(env.Session, sess.Config{Size: env.SessionSize}),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Selected)),
	}
}

func (m *SessionScreen) Init() tea.Cmd {
	s, env, level := m.s, m.env, m.level
	start := func() tea.Msg {
		err := s.Start(context.Background(), env.Identity, level, env.Now())
		return startedMsg{SessionID: s.ID(), Err: err}
	}
	return tea.Batch(start, m.spinner.Tick)
}

func (m *SessionScreen) Title() string {
	return m.level.Name
}

// HandlesEscape is always true: Esc asks before leaving a running session.
func (m *SessionScreen) HandlesEscape() bool {
	return true
}

func (m *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case m.quitConfirm:
		return []layout.KeyHint{{Key: "Y", Description: "End session"}, {Key: "N", Description: "Keep going"}}
	case m.finishing:
		return nil
	}

	switch m.s.Phase() {
	case sess.PhaseActive:
		hints := []layout.KeyHint{{Key: "0-9", Description: "Answer"}, {Key: "Enter", Description: "Submit"}}
		if m.env.TutorAvailable() {
			hints = append(hints, layout.KeyHint{Key: "?", Description: "Help"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Quit"})
	case sess.PhaseFeedback:
		var hints []layout.KeyHint
		if m.env.TutorAvailable() {
			hints = append(hints, layout.KeyHint{Key: "?", Description: "Help"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Quit"})
	case sess.PhaseError:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	return nil
}

func (m *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.SessionID == m.s.ID() && msg.Err != nil {
			m.env.Log().Warn("session start failed", "level", m.level.ID, "error", msg.Err)
		}
		return m, nil

	case writeDoneMsg:
		m.s.Confirm(msg.Result)
		if m.finishing && m.s.Pending() == 0 {
			return m, m.complete()
		}
		return m, nil

	case advanceMsg:
		if msg.SessionID != m.s.ID() || m.s.Snapshot().Index != msg.Index {
			return m, nil
		}
		return m, m.advance(msg.At)

	case completedMsg:
		if msg.SessionID != m.s.ID() {
			return m, nil
		}
		if msg.Err != nil {
			m.completeErr = msg.Err
			return m, nil
		}
		next := summary.New(m.env, m.level, msg.Summary)
		return m, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case helpMsg:
		if msg.SessionID != m.s.ID() || m.help == nil || m.help.fact.Key() != msg.FactKey {
			return m, nil
		}
		m.help.loading = false
		m.help.help, m.help.err = msg.Help, msg.Err
		if msg.Err != nil {
			m.env.Log().Warn("question help failed", "fact", msg.FactKey, "error", msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *SessionScreen) busy() bool {
	return m.s.Phase() == sess.PhaseLoading || m.finishing || (m.help != nil && m.help.loading)
}

func (m *SessionScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if m.quitConfirm {
		switch key {
		case "y", "Y":
			m.s.Abandon()
			return m, pop
		case "n", "N", "esc":
			m.quitConfirm = false
		}
		return m, nil
	}

	if m.completeErr != nil {
		return m, pop
	}
	if m.finishing {
		return m, nil
	}

	switch m.s.Phase() {
	case sess.PhaseLoading:
		if key == "esc" {
			return m, pop
		}
	case sess.PhaseError:
		return m, pop
	case sess.PhaseActive:
		switch key {
		case "esc":
			m.quitConfirm = true
		case "enter":
			return m, m.submit()
		case "backspace":
			m.s.Backspace()
		case "ctrl+u":
			m.s.Clear()
		case "?":
			return m, m.requestHelp()
		default:
			if r := []rune(msg.Text); len(r) == 1 {
				m.s.Input(r[0])
			}
		}
	case sess.PhaseFeedback:
		switch key {
		case "?":
			return m, m.requestHelp()
		case "esc":
			m.quitConfirm = true
		}
	}
	return m, nil
}

func pop() tea.Msg {
	return router.PopScreenMsg{}
}

func (m *SessionScreen) submit() tea.Cmd {
	fb, write, err := m.s.Submit(m.env.Now())
	if err != nil {
		if !errors.Is(err, sess.ErrEmptyInput) {
			m.env.Log().Debug("submit rejected", "error", err)
		}
		return nil
	}
	m.last = &fb

	cmds := []tea.Cmd{m.scheduleAdvance(sess.FeedbackDelay)}
	if write != nil {
		cmds = append(cmds, func() tea.Msg {
			return writeDoneMsg{Result: write(context.Background())}
		})
	}
	return tea.Batch(cmds...)
}

// scheduleAdvance moves past the current feedback once d has passed.
func (m *SessionScreen) scheduleAdvance(d time.Duration) tea.Cmd {
	id, index := m.s.ID(), m.s.Snapshot().Index
	return m.env.Tick(d, func(at time.Time) tea.Msg {
		return advanceMsg{SessionID: id, Index: index, At: at}
	})
}

func (m *SessionScreen) advance(at time.Time) tea.Cmd {
	phase, err := m.s.Advance(at)
	if errors.Is(err, sess.ErrTooEarly) {
		return m.scheduleAdvance(m.s.FeedbackLeft(at))
	}
	if err != nil {
		return nil
	}
	m.help = nil
	if phase != sess.PhaseComplete {
		return nil
	}
	m.finishing = true
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.s.Pending() == 0 {
		cmds = append(cmds, m.complete())
	}
	return tea.Batch(cmds...)
}

func (m *SessionScreen) complete() tea.Cmd {
	s, env := m.s, m.env
	return func() tea.Msg {
		sum, err := s.Complete(context.Background(), env.Now())
		return completedMsg{SessionID: s.ID(), Summary: sum, Err: err}
	}
}

func (m *SessionScreen) requestHelp() tea.Cmd {
	if !m.env.TutorAvailable() {
		return nil
	}
	fact := m.s.Snapshot().Question.Fact
	if m.help != nil && m.help.fact == fact {
		return nil
	}
	m.help = &helpState{fact: fact, loading: true}

	t, id := m.env.Tutor, m.s.ID()
	fetch := func() tea.Msg {
		h, err := t.QuestionHelp(context.Background(), fact)
		return helpMsg{SessionID: id, FactKey: fact.Key(), Help: h, Err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}
