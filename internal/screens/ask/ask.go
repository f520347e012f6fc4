// Package ask lets the learner put free-form math questions to the tutor.
package ask

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathdrill/internal/screen"
	"github.com/abhisek/mathdrill/internal/tutor"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/layout"
	"github.com/abhisek/mathdrill/internal/ui/theme"
)

type answerMsg struct {
	Question string
	Answer   string
	Err      error
}

// exchange is one question and its reply.
type exchange struct {
	question string
	answer   string
	err      error
}

type AskScreen struct {
	env     *screen.Env
	input   components.TextInput
	spinner spinner.Model
	pending string
	history []exchange
}

var (
	_ screen.Screen          = (*AskScreen)(nil)
	_ screen.KeyHintProvider = (*AskScreen)(nil)
)

// maxHistory keeps the screen to the last few exchanges.
const maxHistory = 3

func New(env *screen.Env) *AskScreen {
	input := components.NewTextInput("How do I multiply by 9?", tutor.MaxQuestionLength, 60)
	if env.StaticCursor {
		input.SetBlink(false)
	}
	return &AskScreen{
		env:     env,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Selected)),
	}
}

func (a *AskScreen) Init() tea.Cmd {
	return a.input.Init()
}

func (a *AskScreen) Title() string {
	return "Ask the tutor"
}

func (a *AskScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Ask"},
		{Key: "Esc", Description: "Back"},
	}
}

func (a *AskScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		if msg.Question != a.pending {
			return a, nil
		}
		a.pending = ""
		if msg.Err != nil {
			a.env.Log().Warn("ask tutor", "error", msg.Err)
		}
		a.history = append(a.history, exchange{question: msg.Question, answer: msg.Answer, err: msg.Err})
		if len(a.history) > maxHistory {
			a.history = a.history[len(a.history)-maxHistory:]
		}
		return a, nil

	case spinner.TickMsg:
		if a.pending == "" {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyPressMsg:
		if msg.String() == "enter" {
			return a, a.ask()
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *AskScreen) ask() tea.Cmd {
	q := strings.TrimSpace(a.input.Value())
	if q == "" || a.pending != "" || a.env.Tutor == nil {
		return nil
	}
	a.pending = q
	a.input.Reset()

	t := a.env.Tutor
	fetch := func() tea.Msg {
		answer, err := t.AskQuestion(context.Background(), q)
		return answerMsg{Question: q, Answer: answer, Err: err}
	}
	return tea.Batch(fetch, a.spinner.Tick)
}

func (a *AskScreen) View(width, height int) string {
	cw := min(width-8, 76)

	var parts []string
	for _, ex := range a.history {
		parts = append(parts, theme.Selected.Render("Q: ")+theme.Body.Render(ex.question))
		parts = append(parts, lipgloss.NewStyle().Width(cw).Render(renderAnswer(ex)))
	}
	if a.pending != "" {
		parts = append(parts, theme.Selected.Render("Q: ")+theme.Body.Render(a.pending))
		parts = append(parts, a.spinner.View()+theme.Dim.Render(" Thinking..."))
	}
	if len(parts) == 0 {
		parts = append(parts, theme.Hint.Render("Ask anything about numbers, facts or tricks."))
	}

	body := strings.Join(parts, "\n\n") + "\n\n" + a.input.View()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Bottom, theme.Card.Width(cw+6).Render(body))
}

func renderAnswer(ex exchange) string {
	if ex.err == nil {
		return theme.Body.Render(ex.answer)
	}
	switch {
	case errors.Is(ex.err, tutor.ErrQuestionTooLong):
		return theme.Warn.Render("That question is too long. Try a shorter one.")
	case errors.Is(ex.err, tutor.ErrUnavailable):
		return theme.Warn.Render("The tutor is not set up on this computer.")
	}
	return theme.Warn.Render("The tutor could not answer right now. Try again in a bit.")
}
