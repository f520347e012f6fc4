// Package layout draws the header, footer and frame around screens.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// The smallest terminal the session screen fits in.
const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint is one "key action" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	text := fmt.Sprintf("Terminal too small!\n\nmathdrill needs at least %d x %d.\nThis one is %d x %d.",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(text))
}

// Stats is the learner status shown on the right of the header.
type Stats struct {
	// Anonymous hides the streak and goal, which are not tracked.
	Anonymous   bool
	Streak      int
	GoalCurrent int
	GoalTarget  int
}

func (s Stats) render() string {
	if s.Anonymous {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("guest")
	}
	goalColor := theme.Secondary
	if s.GoalTarget > 0 && s.GoalCurrent >= s.GoalTarget {
		goalColor = theme.Success
	}
	return lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("🔥 %d day", s.Streak)) +
		"   " +
		lipgloss.NewStyle().Foreground(goalColor).Render(fmt.Sprintf("◎ %d/%d today", s.GoalCurrent, s.GoalTarget))
}

// bar boxes one line of content the full width of the terminal.
func bar(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderHeader puts the app name on the left, the screen title in the
// middle and the learner stats on the right.
func RenderHeader(title string, stats Stats, width int) string {
	brand := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  mathdrill")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := stats.render()

	// Inside the border and its padding.
	inner := max(width-4, 0)
	bw, cw, rw := lipgloss.Width(brand), lipgloss.Width(center), lipgloss.Width(right)
	gapL := max((inner-cw)/2-bw, 1)
	gapR := max(inner-bw-gapL-cw-rw, 1)

	return bar(brand+strings.Repeat(" ", gapL)+center+strings.Repeat(" ", gapR)+right, width)
}

func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
	}
	return bar("  "+strings.Join(parts, "   "), width)
}

// RenderFrame stacks header, body and footer, giving the body whatever
// height is left.
func RenderFrame(header, body, footer string, width, height int) string {
	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body = lipgloss.NewStyle().Width(width).Height(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
