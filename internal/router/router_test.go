package router

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/screen"
)

type fakeScreen struct {
	name      string
	inits     int
	refreshes int
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *fakeScreen) View(int, int) string                    { return s.name }
func (s *fakeScreen) Title() string                           { return s.name }

// refreshingScreen reloads its data when it becomes active again.
type refreshingScreen struct{ fakeScreen }

func (s *refreshingScreen) Refresh() tea.Cmd {
	s.refreshes++
	return nil
}

func stack(r *Router) string {
	names := make([]string, len(r.stack))
	for i, s := range r.stack {
		names[i] = s.Title()
	}
	return strings.Join(names, ">")
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name string
		msgs []tea.Msg
		want string
	}{
		{"push", []tea.Msg{PushScreenMsg{Screen: &fakeScreen{name: "levels"}}}, "home>levels"},
		{"pop", []tea.Msg{PushScreenMsg{Screen: &fakeScreen{name: "levels"}}, PopScreenMsg{}}, "home"},
		{"pop at root", []tea.Msg{PopScreenMsg{}, PopScreenMsg{}}, "home"},
		{"replace root", []tea.Msg{ReplaceScreenMsg{Screen: &fakeScreen{name: "levels"}}}, "levels"},
		{"replace keeps depth", []tea.Msg{
			PushScreenMsg{Screen: &fakeScreen{name: "levels"}},
			PushScreenMsg{Screen: &fakeScreen{name: "session"}},
			ReplaceScreenMsg{Screen: &fakeScreen{name: "summary"}},
		}, "home>levels>summary"},
		{"pop to root", []tea.Msg{
			PushScreenMsg{Screen: &fakeScreen{name: "levels"}},
			PushScreenMsg{Screen: &fakeScreen{name: "summary"}},
			PopToRootMsg{},
		}, "home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fakeScreen{name: "home"})
			for _, msg := range tt.msgs {
				r.Update(msg)
			}
			if got := stack(r); got != tt.want {
				t.Errorf("stack = %q, want %q", got, tt.want)
			}
			if r.Depth() != strings.Count(tt.want, ">")+1 {
				t.Errorf("Depth() = %d for %q", r.Depth(), tt.want)
			}
			if r.View(80, 24) != r.Active().Title() {
				t.Errorf("View should draw the active screen")
			}
		})
	}
}

func TestNewScreensAreInitialized(t *testing.T) {
	r := New(&fakeScreen{name: "home"})

	pushed := &fakeScreen{name: "levels"}
	r.Push(pushed)
	replaced := &fakeScreen{name: "session"}
	r.Replace(replaced)

	if pushed.inits != 1 || replaced.inits != 1 {
		t.Errorf("inits = %d, %d, want 1 each", pushed.inits, replaced.inits)
	}
}

func TestRefreshOnlyWhenUncovered(t *testing.T) {
	home := &refreshingScreen{fakeScreen{name: "home"}}
	r := New(home)
	r.Push(&fakeScreen{name: "levels"})
	r.Push(&fakeScreen{name: "summary"})

	r.Pop()
	if home.refreshes != 0 {
		t.Fatalf("covered screen refreshed %d times", home.refreshes)
	}
	r.PopToRoot()
	if home.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", home.refreshes)
	}

	r.PopToRoot()
	if home.refreshes != 1 {
		t.Errorf("PopToRoot at the root refreshed again")
	}
}
