// Package summary shows the result of a finished session.
package summary

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/router"
	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// SummaryScreen displays a session.Summary. It replaces the session
// screen, so Enter returns to the level picker.
type SummaryScreen struct {
	env     *screen.Env
	level   levels.Level
	summary session.Summary
}

var (
	_ screen.Screen          = (*SummaryScreen)(nil)
	_ screen.KeyHintProvider = (*SummaryScreen)(nil)
	_ screen.EscapeHandler   = (*SummaryScreen)(nil)
)

func New(env *screen.Env, level levels.Level, sum session.Summary) *SummaryScreen {
	return &SummaryScreen{env: env, level: level, summary: sum}
}

// Init refreshes the header, since the streak and goal just changed.
func (s *SummaryScreen) Init() tea.Cmd {
	sum := s.summary
	if s.env.Identity.IsAnonymous() || sum.Streak == nil || sum.Goal == nil {
		return nil
	}
	stats := layout.Stats{
		Streak:      sum.Streak.State.CurrentStreak,
		GoalCurrent: sum.Goal.Goal.Current,
		GoalTarget:  sum.Goal.Goal.Target,
	}
	return func() tea.Msg { return screen.StatsMsg{Stats: stats} }
}

func (s *SummaryScreen) Title() string {
	return "Session summary"
}

func (s *SummaryScreen) HandlesEscape() bool {
	return true
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Pick a level"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	cw := min(width-8, 64)
	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))

	var sections []string
	sections = append(sections,
		theme.Centered(theme.Title, width, headline(sum.Accuracy)),
		theme.Centered(theme.Body, width, fmt.Sprintf("%d of %d correct   %.0f%%   %s",
			sum.Correct, sum.Total, sum.Accuracy*100, formatDuration(sum.Duration))),
	)

	sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderQuestions()))

	if extra := s.renderProgress(width); extra != "" {
		sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, divider), extra)
	}

	if sum.Advisory != "" {
		sections = append(sections, theme.Centered(theme.Hint, width, sum.Advisory))
	}
	for _, w := range sum.Warnings {
		sections = append(sections, theme.Centered(theme.Warn, width, "! "+w))
	}

	return lipgloss.PlaceVertical(height, lipgloss.Center, strings.Join(sections, "\n\n"))
}

func headline(accuracy float64) string {
	switch {
	case accuracy >= 1:
		return "Perfect round!"
	case accuracy >= 0.8:
		return "Great job!"
	case accuracy >= 0.5:
		return "Nice work, keep going!"
	}
	return "Practice makes progress!"
}

func (s *SummaryScreen) renderQuestions() string {
	var b strings.Builder
	for _, q := range s.summary.Questions {
		if !q.Answered {
			continue
		}
		mark := theme.Correct.Render("✓")
		detail := ""
		if !q.IsCorrect {
			mark = theme.Incorrect.Render("✗")
			detail = theme.Dim.Render(fmt.Sprintf("  you said %d", q.UserAnswer))
		}
		fmt.Fprintf(&b, "%s  %s = %d%s  %s\n", mark, q.Fact, q.Answer, detail,
			theme.Dim.Render(fmt.Sprintf("%.1fs", q.TimeToAnswer.Seconds())))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderProgress shows streak, goal and badge changes for signed-in users.
func (s *SummaryScreen) renderProgress(width int) string {
	sum := s.summary
	var lines []string

	if st := sum.Streak; st != nil {
		line := fmt.Sprintf("🔥 Streak: %d days", st.State.CurrentStreak)
		if st.Milestone {
			line += "  " + lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
				Render(fmt.Sprintf("%d-day milestone!", st.State.CurrentStreak))
		}
		lines = append(lines, theme.Centered(theme.Body, width, line))
	}

	if g := sum.Goal; g != nil {
		style := theme.Body
		text := fmt.Sprintf("◎ Today's goal: %d/%d sessions", g.Goal.Current, g.Goal.Target)
		if g.JustCompleted {
			style = theme.Correct
			text += "  Goal reached!"
		}
		lines = append(lines, theme.Centered(style, width, text))
	}

	for _, bd := range sum.NewBadges {
		lines = append(lines, theme.Centered(lipgloss.NewStyle().Foreground(theme.Accent), width,
			fmt.Sprintf("%s New badge: %s. %s", badges.Glyph(bd.Icon), bd.Name, bd.Description)))
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
