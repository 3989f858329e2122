package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/askchat/askapi"
	"github.com/linanwx/askchat/channel"
	"github.com/linanwx/askchat/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a chat session against the configured ask endpoint.

In a terminal this opens a full-screen UI. When stdin is not a terminal,
one question is read per line. With --web the chat is served as a page.

Examples:
  askchat chat
  askchat chat --endpoint http://localhost:8000/ask
  askchat chat --web --web-addr 127.0.0.1:9090
  echo "What is a bond?" | askchat chat`,
	RunE: runChat,
}

var (
	chatEndpoint string
	chatWeb      bool
	chatWebAddr  string
	chatLogs     bool
)

func init() {
	chatCmd.Flags().StringVar(&chatEndpoint, "endpoint", "", "Override the ask endpoint URL")
	chatCmd.Flags().BoolVar(&chatWeb, "web", false, "Serve the chat as a web page instead of the terminal UI")
	chatCmd.Flags().StringVar(&chatWebAddr, "web-addr", "", "Override the web listen address")
	chatCmd.Flags().BoolVar(&chatLogs, "logs", false, "Show the log panel in the terminal UI (toggle with ctrl+l)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	client, err := newAskClient(chatEndpoint)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	title := "askchat · " + client.Endpoint()
	manager := channel.NewManager()
	if chatWeb {
		addr := strings.TrimSpace(chatWebAddr)
		if addr == "" {
			addr = runtimeCfg.Web.Addr
		}
		manager.Register(channel.NewWebChannel(channel.WebConfig{
			Addr:  addr,
			Title: title,
			Asker: client,
		}))
		fmt.Printf("askchat is serving http://%s. Press Ctrl+C to stop.\n", addr)
	} else {
		manager.Register(channel.NewCLIChannel(channel.CLIConfig{
			Asker:    client,
			Title:    title,
			ShowLogs: chatLogs,
		}))
	}

	logger.Info("chat session starting", "endpoint", client.Endpoint(), "web", chatWeb)
	return manager.RunAll(ctx)
}

// newAskClient builds the endpoint client from config, with override taking
// precedence when non-empty.
func newAskClient(override string) (*askapi.Client, error) {
	endpoint := runtimeCfg.GetEndpoint()
	if v := strings.TrimSpace(override); v != "" {
		endpoint = v
	}
	client, err := askapi.NewClient(askapi.ClientConfig{
		Endpoint: endpoint,
		Timeout:  runtimeCfg.GetClientTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ask endpoint: %w", err)
	}
	return client, nil
}
