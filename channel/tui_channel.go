package channel

import (
	"bytes"
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/askchat/channel/tui"
	"github.com/linanwx/askchat/chat"
	"github.com/linanwx/askchat/logger"
)

const tuiLogBufferSize = 256

// TUIChannel runs the chat in a full-screen bubbletea program.
type TUIChannel struct {
	cfg CLIConfig
}

func newTUIChannel(cfg CLIConfig) *TUIChannel {
	return &TUIChannel{cfg: cfg}
}

func (c *TUIChannel) Name() string { return "cli" }

func (c *TUIChannel) Run(ctx context.Context) error {
	orch := chat.NewOrchestrator(c.cfg.Asker)
	app := tui.NewApp(ctx, orch, tui.Options{
		Title:    c.cfg.Title,
		ShowLogs: c.cfg.ShowLogs,
	})
	program := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	// Redirect logger output to the TUI log panel while the program owns
	// the terminal.
	lw := newLogWriter(program)
	logger.Intercept(lw)
	defer func() {
		logger.Restore()
		lw.close()
	}()

	logger.Info("cli channel started (TUI mode)")
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// logWriter forwards each written line to the TUI as a LogLineMsg. Writes
// never block: log calls are made from inside Update, where a synchronous
// program.Send would deadlock. Lines are dropped when the buffer is full.
type logWriter struct {
	lines chan string
	stop  chan struct{}
	done  chan struct{}
}

func newLogWriter(program *tea.Program) *logWriter {
	w := &logWriter{
		lines: make(chan string, tuiLogBufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stop:
				return
			case line := <-w.lines:
				program.Send(tui.LogLineMsg{Line: line})
			}
		}
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}

// close stops the forwarding goroutine. Late writes are buffered or dropped.
func (w *logWriter) close() {
	close(w.stop)
	<-w.done
}
