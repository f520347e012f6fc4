package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput is a focused single-line input for free text such as tutor
// questions. Answers to drill questions go through the session buffer
// instead.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates a focused input. A positive limit caps the number
// of characters.
func NewTextInput(placeholder string, limit, width int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if limit > 0 {
		ti.CharLimit = limit
	}
	if width > 0 {
		ti.SetWidth(width)
	}
	ti.Focus()
	return TextInput{Model: ti}
}

func (t TextInput) Init() tea.Cmd {
	return textinput.Blink
}

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	return t.Model.View()
}

func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetBlink turns cursor blinking on or off.
func (t *TextInput) SetBlink(on bool) {
	s := t.Model.Styles()
	s.Cursor.Blink = on
	t.Model.SetStyles(s)
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
}
