package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// ProgressBar is a horizontal bar with an optional label and percentage.
type ProgressBar struct {
	Label string
	// LabelWidth pads the label so bars in a list line up.
	LabelWidth int
	// Percent is 0-100.
	Percent     float64
	ShowPercent bool
	Width       int
}

func (p ProgressBar) View() string {
	var out string
	if p.Label != "" {
		label := p.Label
		if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		out = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	suffix := ""
	if p.ShowPercent {
		suffix = fmt.Sprintf("  %3.0f%%", p.Percent)
	}

	barWidth := max(p.Width-lipgloss.Width(out)-len(suffix), 4)
	filled := min(max(int(float64(barWidth)*p.Percent/100), 0), barWidth)

	out += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	if suffix != "" {
		out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix)
	}
	return out
}
