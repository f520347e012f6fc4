package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/screen/screentest"
	"github.com/abhisek/mathdrill/internal/ui/layout"
)

type stubScreen struct {
	title   string
	escapes bool
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd { return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return "stub body" }
func (s *stubScreen) Title() string        { return s.title }
func (s *stubScreen) HandlesEscape() bool { return s.escapes }

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func sized(t *testing.T, userID string) AppModel {
	t.Helper()
	f := screentest.NewEnv(t, userID)
	m, _ := update(t, New(f.Env), tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestApp_RendersFrame(t *testing.T) {
	m := sized(t, "kid-1")
	out := m.render()
	for _, want := range []string{"mathdrill", "Home", "Practice", "Ctrl+C"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q", want)
		}
	}
}

func TestApp_TooSmall(t *testing.T) {
	m := sized(t, "kid-1")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(m.render(), "Terminal too small") {
		t.Error("expected the minimum size message")
	}
}

func TestApp_StatsMsgUpdatesHeader(t *testing.T) {
	m := sized(t, "kid-1")
	m, _ = update(t, m, screen.StatsMsg{Stats: layout.Stats{Streak: 4, GoalCurrent: 1, GoalTarget: 3}})
	out := m.render()
	if !strings.Contains(out, "4 day") || !strings.Contains(out, "1/3 today") {
		t.Errorf("header missing stats:\n%s", out)
	}
}

func TestApp_GuestHeader(t *testing.T) {
	m := sized(t, "")
	if !strings.Contains(m.render(), "guest") {
		t.Error("expected guest marker in header")
	}
}

func TestApp_EscapePopsScreens(t *testing.T) {
	m := sized(t, "kid-1")
	m.router.Push(&stubScreen{title: "Stub"})

	_, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestApp_EscapeAtRootIsIgnored(t *testing.T) {
	m := sized(t, "kid-1")
	if _, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("Esc on the home screen should do nothing")
	}
}

func TestApp_EscapeHandlerGetsEscape(t *testing.T) {
	m := sized(t, "kid-1")
	stub := &stubScreen{title: "Drill", escapes: true}
	m.router.Push(stub)

	update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if len(stub.got) != 1 {
		t.Fatalf("screen got %d messages, want 1", len(stub.got))
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestApp_CtrlCQuits(t *testing.T) {
	m := sized(t, "kid-1")
	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
