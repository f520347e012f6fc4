package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/mastery"
	sess "github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

// maxWarnings caps the warning lines under the question.
const maxWarnings = 2

func (m *SessionScreen) View(width, height int) string {
	if m.quitConfirm {
		return m.renderQuitConfirm(width, height)
	}
	if m.completeErr != nil {
		return renderMessage(width, height, theme.Incorrect,
			fmt.Sprintf("Could not finish the session: %v", m.completeErr), "Press any key to go back.")
	}
	if m.finishing {
		return renderMessage(width, height, theme.Body, m.spinner.View()+" Saving your results...", "")
	}

	snap := m.s.Snapshot()
	switch snap.Phase {
	case sess.PhaseLoading:
		return renderMessage(width, height, theme.Body, m.spinner.View()+" Preparing your questions...", "")
	case sess.PhaseError:
		return renderMessage(width, height, theme.Incorrect,
			fmt.Sprintf("Could not create questions: %v", snap.Err), "Press any key to pick another level.")
	}

	var b strings.Builder
	b.WriteString(m.renderInfoLine(snap, width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n\n")

	q := snap.Question
	question := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(q.Fact.String() + " = ")
	switch snap.Phase {
	case sess.PhaseActive:
		question += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(snap.Input + "_")
	case sess.PhaseFeedback:
		question += m.renderGiven()
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, question))
	b.WriteString("\n\n")

	if !m.env.Identity.IsAnonymous() && snap.Flags.Attempts > 0 {
		b.WriteString(theme.Centered(theme.Dim, width, renderFlags(snap.Flags)))
		b.WriteString("\n\n")
	}

	if snap.Phase == sess.PhaseFeedback && m.last != nil {
		b.WriteString(m.renderFeedback(width))
		b.WriteString("\n\n")
	}

	if m.help != nil {
		b.WriteString(m.renderHelp(width))
		b.WriteString("\n\n")
	}

	if snap.Advisory != "" {
		b.WriteString(theme.Centered(theme.Hint, width, snap.Advisory))
		b.WriteString("\n")
	}
	warnings := snap.Warnings
	if len(warnings) > maxWarnings {
		warnings = warnings[len(warnings)-maxWarnings:]
	}
	for _, w := range warnings {
		b.WriteString(theme.Centered(theme.Warn, width, "! "+w))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *SessionScreen) renderInfoLine(snap sess.Snapshot, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render("  " + snap.Level.Name)
	right := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Question %d/%d   %s %d",
			snap.Index+1, snap.Total,
			lipgloss.NewStyle().Foreground(theme.Success).Render("✓"), snap.Correct))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *SessionScreen) renderGiven() string {
	if m.last == nil {
		return ""
	}
	given := fmt.Sprint(m.last.Given)
	if m.last.Correct {
		return theme.Correct.Render(given)
	}
	return theme.Incorrect.Render(given)
}

func (m *SessionScreen) renderFeedback(width int) string {
	fb := m.last
	if fb.Correct {
		line := "Correct!"
		if fb.Elapsed < mastery.FastThreshold {
			line += " ⚡ fast"
		}
		return theme.Centered(theme.Correct, width, line)
	}
	return theme.Centered(theme.Incorrect, width, "Not quite") + "\n" +
		theme.Centered(theme.Body, width, fmt.Sprintf("%s = %d", fb.Fact, fb.Expected))
}

// renderFlags shows the learner's history with the fact.
func renderFlags(f mastery.Flags) string {
	status := mastery.StatusOf(f)
	label := lipgloss.NewStyle().Foreground(theme.FactStatus(string(status))).Render(string(status))
	return fmt.Sprintf("%s · %d/%d right · %d fast", label, f.CorrectAttempts, f.Attempts, f.FastCorrectAttempts)
}

func (m *SessionScreen) renderHelp(width int) string {
	cw := min(width-8, 72)
	h := m.help

	var body string
	switch {
	case h.loading:
		body = m.spinner.View() + " Asking the tutor..."
	case h.err != nil:
		body = theme.Warn.Render("The tutor could not help right now.")
	default:
		var b strings.Builder
		for i, s := range h.help.Strategies {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, theme.Selected.Render(s.Name), s.Explanation)
			if s.Example != "" {
				b.WriteString(theme.Dim.Render("   "+s.Example) + "\n")
			}
		}
		if h.help.Tip != "" {
			b.WriteString("\n" + theme.Hint.Render(h.help.Tip))
		}
		body = strings.TrimRight(b.String(), "\n")
	}

	card := theme.Card.Width(cw).Render(theme.Title.Render("Help with "+h.fact.String()) + "\n\n" + body)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func (m *SessionScreen) renderQuitConfirm(width, height int) string {
	lines := []string{
		theme.Centered(theme.Body.Bold(true), width, "End this session?"),
	}
	if !m.env.Identity.IsAnonymous() {
		lines = append(lines, theme.Centered(theme.Dim, width, "Answers you already gave are saved."))
	}
	lines = append(lines, "",
		theme.Centered(lipgloss.NewStyle().Foreground(theme.Success), width, "[Y] Yes, end session"),
		theme.Centered(lipgloss.NewStyle().Foreground(theme.Primary), width, "[N] No, keep going"),
	)
	return lipgloss.PlaceVertical(height, lipgloss.Center, strings.Join(lines, "\n"))
}

func renderMessage(width, height int, style lipgloss.Style, msg, hint string) string {
	out := theme.Centered(style, width, msg)
	if hint != "" {
		out += "\n\n" + theme.Centered(theme.Hint, width, hint)
	}
	return lipgloss.PlaceVertical(height, lipgloss.Center, out)
}
