package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/askchat/chat"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true) // cyan
	userMsgStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true) // magenta
	assistantMsgStyle   = lipgloss.NewStyle()
	emptyChatStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// RenderMessage renders one chat row. User rows are right-aligned, assistant
// rows left-aligned; both wrap to roughly three quarters of width.
func RenderMessage(m chat.Message, width int) string {
	bubble := width * 3 / 4
	body := m.Content
	if m.IsUser() {
		body = wrap(userMsgStyle, body, bubble)
		block := lipgloss.JoinVertical(lipgloss.Right, userLabelStyle.Render("you"), body)
		if width > 0 {
			return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
		}
		return block
	}
	body = wrap(assistantMsgStyle, body, bubble)
	return lipgloss.JoinVertical(lipgloss.Left, assistantLabelStyle.Render("ai"), body)
}

func wrap(style lipgloss.Style, text string, width int) string {
	if width > 0 && lipgloss.Width(text) > width {
		style = style.Width(width)
	}
	return style.Render(text)
}

// ChatPanel displays the conversation in a scrollable viewport.
type ChatPanel struct {
	viewport viewport.Model
	messages []chat.Message
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp}
}

// SetMessages replaces the rendered conversation and scrolls to the newest row.
func (p *ChatPanel) SetMessages(messages []chat.Message) {
	p.messages = messages
	p.refresh()
}

func (p *ChatPanel) refresh() {
	if len(p.messages) == 0 {
		p.viewport.SetContent(emptyChatStyle.Render("Ask a question to start the conversation."))
		return
	}
	rows := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		rows = append(rows, RenderMessage(m, p.viewport.Width))
	}
	p.viewport.SetContent(strings.Join(rows, "\n\n"))
	p.viewport.GotoBottom()
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.refresh()
}
