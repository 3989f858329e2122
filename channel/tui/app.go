package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/askchat/chat"
)

const defaultLogRatio = 0.3

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	thinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// Options configures the root model.
type Options struct {
	Title    string
	Prompt   string
	ShowLogs bool
}

// App is the root bubbletea model. It owns the orchestrator; every state
// change happens inside Update, and the only blocking work, the ask
// request, runs as a tea.Cmd.
type App struct {
	ctx   context.Context
	orch  *chat.Orchestrator
	title string

	logPanel   *LogPanel
	chatPanel  *ChatPanel
	inputPanel *InputPanel
	spinner    spinner.Model

	busy          bool
	showLogs      bool
	width, height int
	logRatio      float64
}

// NewApp creates the root TUI model around orch. ctx is used for ask
// requests; cancelling it aborts an in-flight request.
func NewApp(ctx context.Context, orch *chat.Orchestrator, opts Options) *App {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	if opts.Title == "" {
		opts.Title = "AI Chat"
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	m := &App{
		ctx:        ctx,
		orch:       orch,
		title:      opts.Title,
		logPanel:   NewLogPanel(),
		chatPanel:  NewChatPanel(),
		inputPanel: NewInputPanel(opts.Prompt),
		spinner:    sp,
		showLogs:   opts.ShowLogs,
		logRatio:   defaultLogRatio,
	}
	m.sync()
	return m
}

func (m *App) Init() tea.Cmd {
	return textinput.Blink
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.showLogs = !m.showLogs
			m.recalcLayout()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			_, cmd := m.chatPanel.Update(msg)
			return m, cmd
		}
		_, cmd := m.inputPanel.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		_, cmd := m.chatPanel.Update(msg)
		cmds = append(cmds, cmd)

	case InputSubmitMsg:
		if isQuitCommand(msg.Text) {
			return m, tea.Quit
		}
		ex, ok := m.orch.Begin(msg.Text)
		// The input gate closed itself on Enter; sync reopens it when the
		// submission was not accepted.
		m.sync()
		if !ok {
			return m, nil
		}
		cmds = append(cmds, m.askCmd(ex), m.spinner.Tick)

	case AnswerMsg:
		m.orch.Finish(msg.Result)
		m.sync()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case LogLineMsg:
		_, cmd := m.logPanel.Update(msg)
		cmds = append(cmds, cmd)

	default:
		// e.g. cursor blink
		_, cmd := m.inputPanel.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// askCmd performs the request off the update loop and reports back with
// an AnswerMsg.
func (m *App) askCmd(ex chat.Exchange) tea.Cmd {
	ctx, orch := m.ctx, m.orch
	return func() tea.Msg {
		return AnswerMsg{Result: orch.Ask(ctx, ex)}
	}
}

// sync pulls the orchestrator state into the panels.
func (m *App) sync() {
	state := m.orch.State()
	m.busy = state.Busy
	m.chatPanel.SetMessages(state.Messages)
	m.inputPanel.SetDisabled(state.Busy)
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	parts := []string{titleStyle.Render(m.title)}
	if m.showLogs {
		parts = append(parts, m.logPanel.View(), sep)
	}
	parts = append(parts,
		m.chatPanel.View(),
		m.statusLine(),
		sep,
		m.inputPanel.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *App) statusLine() string {
	if m.busy {
		return m.spinner.View() + thinkingStyle.Render("AI is thinking...")
	}
	return statusStyle.Render("enter send · pgup/pgdn scroll · ctrl+l logs · esc quit")
}

func (m *App) recalcLayout() {
	const titleH = 1
	const statusH = 1
	const inputH = 1

	seps := 1
	if m.showLogs {
		seps = 2
	}
	usable := max(m.height-titleH-statusH-inputH-seps, 2)

	chatH := usable
	if m.showLogs {
		logH := max(int(float64(usable)*m.logRatio), 1)
		chatH = max(usable-logH, 1)
		m.logPanel.SetSize(m.width, logH)
	}
	m.chatPanel.SetSize(m.width, chatH)
	m.inputPanel.SetSize(m.width, inputH)
}

func isQuitCommand(text string) bool {
	switch strings.TrimSpace(text) {
	case "/quit", "/exit":
		return true
	}
	return false
}
