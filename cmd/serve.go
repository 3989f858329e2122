package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linanwx/askchat/config"
	"github.com/linanwx/askchat/logger"
	"github.com/linanwx/askchat/provider"
	"github.com/linanwx/askchat/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the /ask endpoint backed by an LLM provider",
	Long: `Start the HTTP endpoint that chat clients talk to.

POST /ask accepts {"user_q": "..."} and replies {"answer": "..."}. The
question is wrapped in the configured prompt template and sent to the
configured provider.

Use --provider, --model, --api-key, --api-base to override config at runtime.
Keys may also come from the environment or a .env file.

Examples:
  askchat serve
  askchat serve --addr 127.0.0.1:8000
  askchat serve --provider anthropic --model claude-sonnet-4-5
  askchat serve --provider deepseek --env-file ./deepseek.env`,
	RunE: runServe,
}

var (
	serveAddr     string
	serveProvider string
	serveModel    string
	serveAPIKey   string
	serveAPIBase  string
	serveEnvFile  string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Override the listen address")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "Override provider (openai, deepseek, openrouter, anthropic)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Override model type")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Override API key")
	serveCmd.Flags().StringVar(&serveAPIBase, "api-base", "", "Override API base URL")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "Load environment variables from this file when it exists")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := loadEnvFile(serveEnvFile); err != nil {
		return err
	}

	sc := runtimeCfg.Server
	applyServeOverrides(&sc)

	p, err := provider.New(provider.Options{
		Provider:  sc.Provider,
		ModelType: sc.ModelType,
		ModelName: sc.ModelName,
		APIKey:    sc.APIKey,
		APIBase:   sc.APIBase,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	srv, err := server.New(buildServerConfig(sc), p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("ask endpoint starting", "addr", sc.Addr, "provider", sc.Provider, "model", sc.ModelType)
	fmt.Printf("askchat is serving on %s (%s/%s). Press Ctrl+C to stop.\n", sc.Addr, sc.Provider, sc.ModelType)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("ask endpoint stopped")
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	logger.Info("loaded env file", "path", path)
	return nil
}

// applyServeOverrides applies non-empty command line flags to sc. Changing
// the provider without a model resets the model to the provider's default.
func applyServeOverrides(sc *config.ServerConfig) {
	if v := strings.TrimSpace(serveAddr); v != "" {
		sc.Addr = v
	}
	if v := strings.TrimSpace(serveProvider); v != "" && v != sc.Provider {
		sc.Provider = v
		sc.ModelName = ""
		if models := provider.SupportedModelsForProvider(v); len(models) > 0 {
			sc.ModelType = models[0]
		}
	}
	if v := strings.TrimSpace(serveModel); v != "" {
		sc.ModelType = v
	}
	if v := strings.TrimSpace(serveAPIKey); v != "" {
		sc.APIKey = v
	}
	if v := strings.TrimSpace(serveAPIBase); v != "" {
		sc.APIBase = v
	}
}

func buildServerConfig(sc config.ServerConfig) server.Config {
	return server.Config{
		Addr:              sc.Addr,
		AllowedOrigins:    sc.AllowedOrigins,
		PromptTemplate:    sc.PromptTemplate,
		MaxTokens:         sc.MaxTokens,
		Temperature:       &sc.Temperature,
		TopP:              &sc.TopP,
		FrequencyPenalty:  &sc.FrequencyPenalty,
		MaxQuestionTokens: sc.MaxQuestionTokens,
		Provider:          sc.Provider,
		Model:             sc.ModelType,
	}
}
