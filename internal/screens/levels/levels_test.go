package levels

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen/screentest"
	sessionscreen "github.com/abhisek/mathdrill/internal/screens/session"
)

func TestLevels_ListsCatalog(t *testing.T) {
	f := screentest.NewEnv(t, "kid-1")
	s := New(f.Env)

	view := s.View(100, 40)
	for _, l := range f.Env.Catalog.All() {
		if !strings.Contains(view, l.Name) {
			t.Errorf("view missing level %q", l.Name)
		}
	}
}

func TestLevels_ShowsMastery(t *testing.T) {
	f := screentest.NewEnv(t, "kid-1")
	ctx := context.Background()
	// Five fast correct answers master 0 + 0.
	fact := problemgen.Fact{Operation: problemgen.OpAddition, Num1: 0, Num2: 0}
	for i := 0; i < 5; i++ {
		if _, err := f.Env.Session.Tracker.RecordAnswer(ctx, "kid-1", fact, true, 0); err != nil {
			t.Fatalf("RecordAnswer: %v", err)
		}
	}

	s := New(f.Env)
	screentest.Pump(s, s.Init())

	if view := s.View(100, 40); !strings.Contains(view, "4% mastered") {
		t.Errorf("view missing mastery for the first level:\n%s", view)
	}
}

func TestLevels_EnterStartsSession(t *testing.T) {
	f := screentest.NewEnv(t, "kid-1")
	s := New(f.Env)

	_, msgs := screentest.Press(s, screentest.Special(tea.KeyDown), screentest.Special(tea.KeyEnter))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %#v", msgs)
	}
	push, ok := msgs[0].(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", msgs[0])
	}
	sc, ok := push.Screen.(*sessionscreen.SessionScreen)
	if !ok {
		t.Fatalf("pushed %T, want *session.SessionScreen", push.Screen)
	}
	if want := f.Env.Catalog.All()[1].Name; sc.Title() != want {
		t.Errorf("session level = %q, want %q", sc.Title(), want)
	}
}
