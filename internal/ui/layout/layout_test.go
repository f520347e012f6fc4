package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{120, 40, false},
		{79, 24, true},
		{80, 23, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("Practice", Stats{Streak: 4, GoalCurrent: 2, GoalTarget: 10}, 100)
	for _, want := range []string{"mathdrill", "Practice", "4 day", "2/10 today"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}

	guest := RenderHeader("Home", Stats{Anonymous: true}, 100)
	if !strings.Contains(guest, "guest") || strings.Contains(guest, "today") {
		t.Errorf("guest header should hide the goal:\n%s", guest)
	}
}

func TestRenderFrameFillsHeight(t *testing.T) {
	header := RenderHeader("Home", Stats{Anonymous: true}, 80)
	footer := RenderFooter([]KeyHint{{Key: "q", Description: "quit"}}, 80)

	frame := RenderFrame(header, "body", footer, 80, 30)
	if h := lipgloss.Height(frame); h != 30 {
		t.Errorf("frame height = %d, want 30", h)
	}
	if !strings.Contains(frame, "quit") {
		t.Errorf("footer missing:\n%s", frame)
	}
}
