// Package progress renders the learner's overview: streak, goal, level
// mastery, badges and facts that need practice.
package progress

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

type loadedMsg struct {
	Overview *progress.Overview
	Err      error
}

type ProgressScreen struct {
	env      *screen.Env
	overview *progress.Overview
	err      error
	vp       viewport.Model
	width    int
}

var (
	_ screen.Screen          = (*ProgressScreen)(nil)
	_ screen.KeyHintProvider = (*ProgressScreen)(nil)
)

func New(env *screen.Env) *ProgressScreen {
	return &ProgressScreen{env: env, vp: viewport.New()}
}

func (p *ProgressScreen) Init() tea.Cmd {
	env := p.env
	if env.Progress == nil || env.Identity.IsAnonymous() {
		return nil
	}
	return func() tea.Msg {
		o, err := env.Progress.Load(context.Background(), env.Identity.UserID, env.Now())
		return loadedMsg{Overview: o, Err: err}
	}
}

func (p *ProgressScreen) Title() string {
	return "My progress"
}

func (p *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (p *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(loadedMsg); ok {
		if msg.Err != nil {
			p.env.Log().Warn("load overview", "error", msg.Err)
		}
		p.overview, p.err = msg.Overview, msg.Err
		p.width = 0
		return p, func() tea.Msg { return screen.StatsMsg{Stats: screen.StatsFrom(p.env.Identity, msg.Overview)} }
	}

	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

func (p *ProgressScreen) View(width, height int) string {
	switch {
	case p.env.Identity.IsAnonymous():
		return theme.Centered(theme.Hint, width, "\n\nStart mathdrill with --user NAME to track your progress.")
	case p.err != nil:
		return theme.Centered(theme.Incorrect, width, "\n\nCould not load your progress.")
	case p.overview == nil:
		return theme.Centered(theme.Dim, width, "\n\nLoading...")
	}

	if p.width != width {
		p.width = width
		p.vp.SetContent(Render(p.overview, min(width-4, 80)))
	}
	p.vp.SetWidth(width)
	p.vp.SetHeight(height)
	return p.vp.View()
}

// Render lays out an overview in cw columns.
func Render(o *progress.Overview, cw int) string {
	var b strings.Builder
	section := func(title string) {
		b.WriteString("\n" + theme.Title.Render(title) + "\n")
	}

	b.WriteString(theme.Body.Render(fmt.Sprintf("🔥 %d-day streak (best %d). Next milestone: %d days",
		o.Streak.Current, o.Streak.Longest, o.Streak.NextMilestone)))
	b.WriteString("\n")
	if !o.Streak.ActiveToday {
		b.WriteString(theme.Hint.Render("Practice today to keep your streak going.") + "\n")
	}

	goal := components.ProgressBar{Label: "Today's goal", LabelWidth: 14, Percent: o.Goal.Percent(), Width: cw}
	b.WriteString(goal.View())
	b.WriteString(theme.Dim.Render(fmt.Sprintf("  %d/%d", o.Goal.Current, o.Goal.Target)) + "\n")

	b.WriteString(theme.Dim.Render(fmt.Sprintf("%d facts practiced, %d answers, %.0f%% correct, %d mastered",
		o.Totals.Facts, o.Totals.Attempts, o.Totals.Accuracy*100, o.Totals.Mastered)) + "\n")

	section("Levels")
	labelWidth := 0
	for _, lp := range o.Levels {
		labelWidth = max(labelWidth, lipgloss.Width(lp.Level.Name))
	}
	for _, lp := range o.Levels {
		bar := components.ProgressBar{Label: lp.Level.Name, LabelWidth: labelWidth, Percent: lp.Percent, ShowPercent: true, Width: cw}
		b.WriteString(bar.View() + "\n")
	}

	section("Badges")
	for _, bd := range o.Badges {
		b.WriteString(renderBadge(bd) + "\n")
	}

	if len(o.Struggling) > 0 {
		section("Needs practice")
		for _, r := range o.Struggling {
			status := mastery.StatusOf(r.Flags())
			fmt.Fprintf(&b, "%s = %d  %s\n", r.Fact, r.Answer,
				lipgloss.NewStyle().Foreground(theme.FactStatus(string(status))).
					Render(fmt.Sprintf("%d wrong in a row", r.ConsecutiveIncorrect)))
		}
	}

	if len(o.Recent) > 0 {
		section("Recent sessions")
		for _, ev := range o.Recent {
			fmt.Fprintf(&b, "%s  %-18s %d/%d\n",
				theme.Dim.Render(ev.CompletedAt.Local().Format("Jan 2 15:04")), ev.LevelID, ev.Correct, ev.Total)
		}
	}
	return b.String()
}

func renderBadge(bd badges.Badge) string {
	glyph := badges.Glyph(bd.Icon)
	if bd.Completed {
		return fmt.Sprintf("%s %s  %s", glyph, theme.Selected.Render(bd.Name), theme.Dim.Render(bd.Description))
	}
	frac := ""
	if bd.Progress != nil {
		frac = fmt.Sprintf(" (%d/%d)", bd.Progress.Current, bd.Progress.Total)
	}
	return theme.Dim.Render(fmt.Sprintf("· %s%s  %s", bd.Name, frac, bd.Description))
}
