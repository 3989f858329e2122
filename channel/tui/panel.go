// Package tui provides the terminal chat interface.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/askchat/chat"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// InputSubmitMsg is emitted when the user presses Enter on a non-blank draft.
type InputSubmitMsg struct{ Text string }

// AnswerMsg delivers the outcome of an ask back to the update loop.
type AnswerMsg struct{ Result chat.Result }
