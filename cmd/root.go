// Package cmd implements the askchat command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linanwx/askchat/config"
	"github.com/linanwx/askchat/logger"
)

var (
	configDirFlag string

	// runtimeCfg is loaded once per invocation before any command runs.
	runtimeCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "askchat",
	Short: "Chat with an ask endpoint from the terminal or the browser",
	Long: `askchat is a small chat client for an "ask" HTTP endpoint, plus the
endpoint itself.

Examples:
  askchat chat                  # Chat in the terminal
  askchat chat --web            # Chat in the browser
  askchat ask "What is a bond?" # One question, one answer
  askchat serve                 # Run the /ask endpoint`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.askchat)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func loadRuntime(_ *cobra.Command, _ []string) error {
	config.SetConfigDir(configDirFlag)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	runtimeCfg = cfg

	dir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	return nil
}
