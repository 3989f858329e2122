// Package provider defines the LLM provider interface used by the ask
// server and the registry of concrete implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request.
type Request struct {
	Messages  []Message
	MaxTokens int // 0 = provider default

	// Nil leaves the provider default in place.
	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64 // OpenAI-compatible APIs only
}

// Message is one prompt message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Response represents a chat completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConstructor builds a provider for the requested model.
type ProviderConstructor func(apiKey, apiBase, modelType, modelName string) Provider

// ProviderRegistration defines metadata and constructor for a provider.
type ProviderRegistration struct {
	Models      []string
	EnvKey      string
	EnvBase     string
	KeyURL      string // where users create an API key
	Constructor ProviderConstructor
}

// supportedModelTypes is the whitelist of supported model types.
var supportedModelTypes = map[string]bool{}

// providerModelTypes maps providers to their supported model types.
var providerModelTypes = map[string][]string{}

var providerRegistry = map[string]ProviderRegistration{}

// RegisterProvider registers provider metadata and constructor.
func RegisterProvider(name string, reg ProviderRegistration) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	models := make([]string, 0, len(reg.Models))
	for _, model := range reg.Models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		models = append(models, model)
		supportedModelTypes[model] = true
	}

	reg.Models = models
	reg.EnvKey = strings.TrimSpace(reg.EnvKey)
	reg.EnvBase = strings.TrimSpace(reg.EnvBase)
	providerRegistry[name] = reg
	providerModelTypes[name] = append([]string(nil), models...)
}

// SupportedProviders returns all supported provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerModelTypes))
	for name := range providerModelTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedModelsForProvider returns supported model types for the given provider.
func SupportedModelsForProvider(providerName string) []string {
	models, ok := providerModelTypes[providerName]
	if !ok {
		return nil
	}
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// KeyURLForProvider returns where to obtain an API key, if known.
func KeyURLForProvider(providerName string) string {
	return providerRegistry[providerName].KeyURL
}

// ValidateProviderModelType checks if a model type is valid for a provider.
func ValidateProviderModelType(providerName, modelType string) error {
	allowed, ok := providerModelTypes[providerName]
	if !ok {
		return errors.New("unknown provider: " + providerName)
	}
	if !supportedModelTypes[modelType] {
		return errors.New("unsupported model type: " + modelType)
	}

	for _, m := range allowed {
		if m == modelType {
			return nil
		}
	}

	return errors.New("model type " + modelType + " is not supported by provider " + providerName)
}

// Options selects and configures a registered provider.
type Options struct {
	Provider  string
	ModelType string
	ModelName string // optional, defaults to ModelType
	APIKey    string // falls back to the provider's EnvKey
	APIBase   string // falls back to the provider's EnvBase, then its default
}

// New builds the provider named in opts.
func New(opts Options) (Provider, error) {
	name := strings.TrimSpace(opts.Provider)
	reg, ok := providerRegistry[name]
	if !ok || reg.Constructor == nil {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(SupportedProviders(), ", "))
	}
	if err := ValidateProviderModelType(name, opts.ModelType); err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" && reg.EnvKey != "" {
		apiKey = strings.TrimSpace(os.Getenv(reg.EnvKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key not configured (set server.apiKey or %s)", name, reg.EnvKey)
	}

	apiBase := strings.TrimSpace(opts.APIBase)
	if apiBase == "" && reg.EnvBase != "" {
		apiBase = strings.TrimSpace(os.Getenv(reg.EnvBase))
	}

	return reg.Constructor(apiKey, apiBase, opts.ModelType, strings.TrimSpace(opts.ModelName)), nil
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

func inputChars(messages []Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}
