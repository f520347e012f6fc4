// Package home is the root screen: a status card and the main menu.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/screens/ask"
	levelsscreen "github.com/abhisek/mathdrill/internal/screens/levels"
	progressscreen "github.com/abhisek/mathdrill/internal/screens/progress"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// overviewMsg carries a finished overview load.
type overviewMsg struct {
	Overview *progress.Overview
	Err      error
}

type HomeScreen struct {
	env      *screen.Env
	menu     components.Menu
	overview *progress.Overview
	loadErr  error
}

var (
	_ screen.Screen    = (*HomeScreen)(nil)
	_ router.Refresher = (*HomeScreen)(nil)
)

func New(env *screen.Env) *HomeScreen {
	h := &HomeScreen{env: env}
	h.menu = components.NewMenu(h.menuItems())
	return h
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	signedIn := !h.env.Identity.IsAnonymous() && h.env.Progress != nil

	progressDetail := ""
	if !signedIn {
		progressDetail = "sign in with --user"
	}
	askDetail := ""
	if !h.env.TutorAvailable() {
		askDetail = "no AI provider configured"
	}

	return []components.MenuItem{
		{Label: "Practice", Action: func() tea.Cmd {
			return push(levelsscreen.New(h.env))
		}},
		{Label: "My progress", Detail: progressDetail, Disabled: !signedIn, Action: func() tea.Cmd {
			return push(progressscreen.New(h.env))
		}},
		{Label: "Ask the tutor", Detail: askDetail, Disabled: !h.env.TutorAvailable(), Action: func() tea.Cmd {
			return push(ask.New(h.env))
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load()
}

// Refresh reloads the status card after returning from a session.
func (h *HomeScreen) Refresh() tea.Cmd {
	return h.load()
}

func (h *HomeScreen) load() tea.Cmd {
	env := h.env
	if env.Identity.IsAnonymous() || env.Progress == nil {
		return func() tea.Msg { return screen.StatsMsg{Stats: screen.StatsFrom(env.Identity, nil)} }
	}
	return func() tea.Msg {
		o, err := env.Progress.Load(context.Background(), env.Identity.UserID, env.Now())
		return overviewMsg{Overview: o, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(overviewMsg); ok {
		if msg.Err != nil {
			h.env.Log().Warn("load overview", "error", msg.Err)
			h.loadErr = msg.Err
			return h, nil
		}
		h.overview, h.loadErr = msg.Overview, nil
		stats := screen.StatsFrom(h.env.Identity, msg.Overview)
		return h, func() tea.Msg { return screen.StatsMsg{Stats: stats} }
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 60)

	var sections []string
	sections = append(sections, theme.Centered(theme.Title, cw, "Math facts, one drill at a time"))
	if height >= 22 {
		sections = append(sections, lipgloss.PlaceHorizontal(cw, lipgloss.Center, renderMascot(moodFor(h.overview))))
	}
	sections = append(sections, h.renderStatus(cw))
	sections = append(sections, theme.Card.Width(cw).Render(h.menu.View()))

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) renderStatus(cw int) string {
	if h.env.Identity.IsAnonymous() {
		return theme.Centered(theme.Hint, cw, "Playing as guest. Your progress will not be saved.")
	}
	if h.loadErr != nil {
		return theme.Centered(theme.Warn, cw, "Could not load your progress.")
	}
	o := h.overview
	if o == nil {
		return theme.Centered(theme.Dim, cw, "Loading...")
	}

	lines := []string{
		fmt.Sprintf("Hi %s!", h.env.Identity.UserID),
		fmt.Sprintf("Streak %d days (best %d)   Goal %d/%d   Mastered %d facts",
			o.Streak.Current, o.Streak.Longest, o.Goal.Current, o.Goal.Target, o.Totals.Mastered),
	}
	if n := len(o.Struggling); n > 0 {
		lines = append(lines, theme.Warn.Render(fmt.Sprintf("%d facts need practice", n)))
	}
	return theme.Centered(theme.Body, cw, strings.Join(lines, "\n"))
}
