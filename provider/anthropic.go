package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/linanwx/askchat/logger"
)

// Anthropic requires max_tokens on every request.
const anthropicDefaultMaxTokens = 1024

func init() {
	RegisterProvider("anthropic", ProviderRegistration{
		Models:  []string{"claude-3-5-haiku-latest", "claude-sonnet-4-5"},
		EnvKey:  "ANTHROPIC_API_KEY",
		EnvBase: "ANTHROPIC_API_BASE",
		KeyURL:  "https://console.anthropic.com",
		Constructor: func(apiKey, apiBase, modelType, modelName string) Provider {
			return newAnthropicProvider(apiKey, apiBase, modelType, modelName)
		},
	})
}

// AnthropicProvider implements Provider with the Anthropic Messages API.
type AnthropicProvider struct {
	modelName string
	modelType string
	client    anthropic.Client
}

func newAnthropicProvider(apiKey, apiBase, modelType, modelName string) *AnthropicProvider {
	if modelName == "" {
		modelName = modelType
	}
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(sdkMaxRetries),
	}
	if base := strings.TrimSpace(apiBase); base != "" {
		opts = append(opts, anthropicoption.WithBaseURL(base))
	}
	return &AnthropicProvider{
		modelName: modelName,
		modelType: modelType,
		client:    anthropic.NewClient(opts...),
	}
}

// Chat sends a Messages API request. System messages are joined into the
// top-level system prompt.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	var system []string
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelName),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}
	// The Messages API has no frequency penalty; it is dropped here.

	logger.Info(
		"llm request",
		"provider", "anthropic",
		"modelType", p.modelType,
		"modelName", p.modelName,
		"inputChars", inputChars(req.Messages),
	)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("llm request send error", "provider", "anthropic", "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	logger.Info(
		"llm response",
		"provider", "anthropic",
		"modelName", p.modelName,
		"stopReason", msg.StopReason,
		"inputTokens", msg.Usage.InputTokens,
		"outputTokens", msg.Usage.OutputTokens,
		"outputChars", b.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: b.String(),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}
