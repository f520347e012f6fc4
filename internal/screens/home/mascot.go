package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// Mood picks the mascot art.
type Mood int

const (
	MoodIdle   Mood = iota
	MoodCheer       // goal met today
	MoodSleepy      // streak not yet extended today
)

const mascotIdle = `┌─────┐
│ ◉ ◉ │
│  ▽  │
│ +−×÷│
└─────┘`

const mascotCheer = `┌─────┐
│ ★ ★ │
│  ◡  │
│ +−×÷│
└─╥═╥─┘`

const mascotSleepy = `┌─────┐
│ − − │ z
│  ○  │
│ +−×÷│
└─────┘`

// moodFor reads the mood off an overview. A nil overview is idle.
func moodFor(o *progress.Overview) Mood {
	switch {
	case o == nil:
		return MoodIdle
	case o.Goal.Completed():
		return MoodCheer
	case o.Streak.Current > 0 && !o.Streak.ActiveToday:
		return MoodSleepy
	}
	return MoodIdle
}

func renderMascot(m Mood) string {
	art, fg := mascotIdle, theme.Primary
	switch m {
	case MoodCheer:
		art, fg = mascotCheer, theme.Success
	case MoodSleepy:
		art, fg = mascotSleepy, theme.TextDim
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
