package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/askchat/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Long: `Send one question to the ask endpoint and print the answer.

The question is taken from the arguments, or from stdin when none are given.
The command exits non-zero when no answer is received.

Examples:
  askchat ask "What is compound interest?"
  echo "What is a bond?" | askchat ask`,
	RunE: runAsk,
}

var askEndpoint string

func init() {
	askCmd.Flags().StringVar(&askEndpoint, "endpoint", "", "Override the ask endpoint URL")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read question: %w", err)
		}
		question = string(data)
	}

	client, err := newAskClient(askEndpoint)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return askOnce(ctx, client, question, cmd.OutOrStdout())
}

// askOnce runs one send cycle and writes the answer to w.
func askOnce(ctx context.Context, asker chat.Asker, question string, w io.Writer) error {
	orch := chat.NewOrchestrator(asker)
	ex, ok := orch.Begin(question)
	if !ok {
		return errors.New("question is empty")
	}
	res := orch.Ask(ctx, ex)
	orch.Finish(res)
	if res.Err != nil {
		return fmt.Errorf("no answer received: %w", res.Err)
	}

	msgs := orch.Messages()
	_, err := fmt.Fprintln(w, msgs[len(msgs)-1].Content)
	return err
}
