package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/askchat/askapi"
	"github.com/linanwx/askchat/config"
	"github.com/linanwx/askchat/provider"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize askchat configuration",
	Long:  `Create the askchat configuration directory and a config file interactively.`,
	RunE:  runOnboard,
}

var onboardForce bool

func init() {
	onboardCmd.Flags().BoolVar(&onboardForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil && !onboardForce {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or run 'askchat onboard --force'.")
		return nil
	}

	// --- interactive wizard ---

	var (
		endpoint         = config.DefaultConfig().Client.Endpoint
		configureServer  bool
		selectedProvider string
		selectedModel    string
		apiKey           string
	)

	// Step 1: chat endpoint
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ask endpoint URL").
				Description("The chat client posts questions here. Keep the default to use 'askchat serve' locally.").
				Validate(validateEndpoint).
				Value(&endpoint),
			huh.NewConfirm().
				Title("Configure the ask server too?").
				Description("Needed only if this machine runs 'askchat serve'.").
				Value(&configureServer),
		),
	).Run()
	if err != nil {
		return err
	}

	if configureServer {
		// Step 2: select provider
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Choose your LLM provider").
					Description("The server forwards each question to this provider.").
					Options(buildProviderOptions()...).
					Value(&selectedProvider),
			),
		).Run()
		if err != nil {
			return err
		}

		// Step 3: select model (dynamic based on provider)
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Choose model for " + selectedProvider).
					Description("The first option is the recommended default.").
					Options(buildModelOptions(selectedProvider)...).
					Value(&selectedModel),
			),
		).Run()
		if err != nil {
			return err
		}

		// Step 4: API key
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter your " + selectedProvider + " API key").
					Description("Create one at " + provider.KeyURLForProvider(selectedProvider) + ". Leave empty to use the environment or a .env file.").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// --- apply config ---

	cfg := buildOnboardConfig(endpoint, selectedProvider, selectedModel, apiKey)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("askchat initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Endpoint:", cfg.Client.Endpoint)
	if configureServer {
		fmt.Println("  Provider:", cfg.Server.Provider)
		fmt.Println("  Model:", cfg.Server.ModelType)
	}
	fmt.Println()
	fmt.Println("Run 'askchat chat' to start.")
	return nil
}

// buildOnboardConfig applies the wizard answers to the defaults. An empty
// provider keeps the default server section.
func buildOnboardConfig(endpoint, providerName, model, apiKey string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Client.Endpoint = strings.TrimSpace(endpoint)
	if providerName != "" {
		cfg.Server.Provider = providerName
		cfg.Server.ModelType = model
		cfg.Server.APIKey = strings.TrimSpace(apiKey)
	}
	return cfg
}

func validateEndpoint(s string) error {
	_, err := askapi.NewClient(askapi.ClientConfig{Endpoint: strings.TrimSpace(s)})
	return err
}

func buildProviderOptions() []huh.Option[string] {
	names := provider.SupportedProviders()
	options := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		models := provider.SupportedModelsForProvider(name)
		label := name + " (" + strings.Join(models, ", ") + ")"
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

func buildModelOptions(providerName string) []huh.Option[string] {
	models := provider.SupportedModelsForProvider(providerName)
	options := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		options = append(options, huh.NewOption(m, m))
	}
	return options
}
