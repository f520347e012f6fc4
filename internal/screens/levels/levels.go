// Package levels is the level picker shown before a session.
package levels

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	sessionscreen "github.com/abhisek/mathdrill/internal/screens/session"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

type masteryMsg struct {
	Levels []progress.LevelProgress
	Err    error
}

// LevelsScreen lists the catalog with per-level mastery.
type LevelsScreen struct {
	env     *screen.Env
	levels  []levels.Level
	percent map[string]float64
	menu    components.Menu
}

var (
	_ screen.Screen          = (*LevelsScreen)(nil)
	_ screen.KeyHintProvider = (*LevelsScreen)(nil)
	_ router.Refresher       = (*LevelsScreen)(nil)
)

func New(env *screen.Env) *LevelsScreen {
	s := &LevelsScreen{env: env, levels: env.Catalog.All()}
	s.menu = components.NewMenu(s.items())
	return s
}

func (s *LevelsScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, len(s.levels))
	for i, l := range s.levels {
		detail := fmt.Sprintf("%s %d-%d", l.Operation, l.Min, l.Max)
		if p, ok := s.percent[l.ID]; ok {
			detail += fmt.Sprintf("  %.0f%% mastered", p)
		}
		items[i] = components.MenuItem{
			Label:  l.Name,
			Detail: detail,
			Action: func() tea.Cmd {
				next := sessionscreen.New(s.env, l)
				return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			},
		}
	}
	return items
}

func (s *LevelsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *LevelsScreen) Refresh() tea.Cmd {
	return s.load()
}

func (s *LevelsScreen) load() tea.Cmd {
	env := s.env
	if env.Identity.IsAnonymous() || env.Progress == nil {
		return nil
	}
	return func() tea.Msg {
		o, err := env.Progress.Load(context.Background(), env.Identity.UserID, env.Now())
		if err != nil {
			return masteryMsg{Err: err}
		}
		return masteryMsg{Levels: o.Levels}
	}
}

func (s *LevelsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(masteryMsg); ok {
		if msg.Err != nil {
			s.env.Log().Warn("load level mastery", "error", msg.Err)
			return s, nil
		}
		s.percent = make(map[string]float64, len(msg.Levels))
		for _, lp := range msg.Levels {
			s.percent[lp.Level.ID] = lp.Percent
		}
		selected := s.menu.Selected
		s.menu = components.NewMenu(s.items())
		s.menu.Selected = selected
		return s, nil
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *LevelsScreen) Title() string {
	return "Choose a level"
}

func (s *LevelsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LevelsScreen) View(width, height int) string {
	cw := min(width-4, 70)
	body := theme.Title.Render("Pick a level") + "\n\n" + s.menu.View()
	if s.selected().Description != "" {
		body += "\n" + theme.Hint.Width(cw-6).Render(s.selected().Description)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Width(cw).Render(body))
}

func (s *LevelsScreen) selected() levels.Level {
	if s.menu.Selected < 0 || s.menu.Selected >= len(s.levels) {
		return levels.Level{}
	}
	return s.levels[s.menu.Selected]
}
