package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/askchat/chat"
)

const (
	idlePlaceholder = "Type a message and press Enter"
	busyPlaceholder = "Waiting for the answer..."
)

// InputPanel is a single-line text input. Submission goes through a
// chat.Input gate, so blank drafts and submissions while disabled are dropped.
type InputPanel struct {
	input         textinput.Model
	gate          chat.Input
	width, height int
}

// NewInputPanel creates a focused input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = idlePlaceholder
	ti.Focus()
	return &InputPanel{input: ti}
}

// SetDisabled blocks or allows submission. The field stays editable while
// disabled so the next question can be drafted; only Enter is refused.
func (p *InputPanel) SetDisabled(disabled bool) {
	p.gate.SetDisabled(disabled)
	if disabled {
		p.input.Placeholder = busyPlaceholder
		return
	}
	p.input.Placeholder = idlePlaceholder
}

// Disabled reports whether submission is blocked.
func (p *InputPanel) Disabled() bool {
	return p.gate.Disabled()
}

// Value returns the current draft.
func (p *InputPanel) Value() string {
	return p.input.Value()
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		var cmd tea.Cmd
		p.gate.SetDraft(p.input.Value())
		p.gate.Submit(func(text string) {
			// Disable before the submit message is handled, so a second
			// Enter in between keeps its draft.
			p.SetDisabled(true)
			p.input.Reset()
			cmd = func() tea.Msg { return InputSubmitMsg{Text: text} }
		})
		return p, cmd
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(width-len(p.input.Prompt)-1, 1)
}
