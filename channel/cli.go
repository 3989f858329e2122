package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/linanwx/askchat/chat"
	"github.com/linanwx/askchat/logger"
)

const thinkingText = "AI is thinking..."

// CLIConfig configures the terminal channels.
type CLIConfig struct {
	Asker    chat.Asker
	Title    string
	ShowLogs bool

	// In and Out default to os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer
}

// NewCLIChannel creates a CLI channel.
// If stdin is a terminal, it returns a TUI-based channel; otherwise a plain scanner.
func NewCLIChannel(cfg CLIConfig) Channel {
	if cfg.In == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		return newTUIChannel(cfg)
	}
	return newPlainCLIChannel(cfg)
}

// plainCLIChannel reads one question per line and prints the answers. It is
// used when stdin is piped or redirected.
type plainCLIChannel struct {
	prompt string
	asker  chat.Asker
	in     io.Reader
	out    io.Writer
}

func newPlainCLIChannel(cfg CLIConfig) *plainCLIChannel {
	c := &plainCLIChannel{
		prompt: "askchat> ",
		asker:  cfg.Asker,
		in:     cfg.In,
		out:    cfg.Out,
	}
	if c.in == nil {
		c.in = os.Stdin
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	return c
}

func (c *plainCLIChannel) Name() string {
	return "cli"
}

func (c *plainCLIChannel) Run(ctx context.Context) error {
	logger.Info("cli channel started (plain mode)")

	orch := chat.NewOrchestrator(c.asker, chat.WithIDs(chat.CounterIDs("cli")))
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, c.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		line := scanner.Text()
		if isQuit(line) {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		var input chat.Input
		input.SetDraft(line)
		input.SetDisabled(orch.Busy())
		input.Submit(func(text string) {
			seen := orch.Messages()
			fmt.Fprintln(c.out, thinkingText)
			orch.Send(ctx, text)
			// The user row is the one Send just added; only the answer is new
			// to the reader.
			for _, m := range orch.Messages()[len(seen):] {
				if !m.IsUser() {
					fmt.Fprintln(c.out, formatPlain(m))
				}
			}
		})
	}
}

// formatPlain renders a message as a labelled text block.
func formatPlain(m chat.Message) string {
	label := "ai> "
	if m.IsUser() {
		label = "you> "
	}
	pad := strings.Repeat(" ", len(label))
	lines := strings.Split(m.Content, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = label + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func isQuit(text string) bool {
	switch strings.TrimSpace(text) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
