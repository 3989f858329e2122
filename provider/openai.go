package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linanwx/askchat/logger"
	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	openAIAPIBase     = "https://api.openai.com/v1"
	deepSeekAPIBase   = "https://api.deepseek.com/v1"
	openRouterAPIBase = "https://openrouter.ai/api/v1"

	sdkMaxRetries = 1
)

func init() {
	RegisterProvider("openai", ProviderRegistration{
		Models:  []string{"gpt-4.1-mini", "gpt-4.1", "gpt-4o-mini"},
		EnvKey:  "OPENAI_API_KEY",
		EnvBase: "OPENAI_API_BASE",
		KeyURL:  "https://platform.openai.com/api-keys",
		Constructor: func(apiKey, apiBase, modelType, modelName string) Provider {
			return newOpenAICompatProvider("openai", apiKey, apiBase, openAIAPIBase, modelType, modelName)
		},
	})

	RegisterProvider("deepseek", ProviderRegistration{
		Models:  []string{"deepseek-chat"},
		EnvKey:  "DEEPSEEK_API_KEY",
		EnvBase: "DEEPSEEK_API_BASE",
		KeyURL:  "https://platform.deepseek.com",
		Constructor: func(apiKey, apiBase, modelType, modelName string) Provider {
			return newOpenAICompatProvider("deepseek", apiKey, apiBase, deepSeekAPIBase, modelType, modelName)
		},
	})

	RegisterProvider("openrouter", ProviderRegistration{
		Models:  []string{"meta-llama/llama-3.1-8b-instruct", "mistralai/mistral-7b-instruct"},
		EnvKey:  "OPENROUTER_API_KEY",
		EnvBase: "OPENROUTER_API_BASE",
		KeyURL:  "https://openrouter.ai/keys",
		Constructor: func(apiKey, apiBase, modelType, modelName string) Provider {
			return newOpenAICompatProvider("openrouter", apiKey, apiBase, openRouterAPIBase, modelType, modelName)
		},
	})
}

// OpenAICompatProvider talks to any OpenAI-compatible chat completions API.
type OpenAICompatProvider struct {
	providerName string
	apiBase      string
	modelName    string
	modelType    string
	client       openai.Client
}

func newOpenAICompatProvider(providerName, apiKey, apiBase, defaultBase, modelType, modelName string) *OpenAICompatProvider {
	if modelName == "" {
		modelName = modelType
	}
	baseURL := normalizeSDKBaseURL(apiBase, defaultBase, "/chat/completions")
	client := openai.NewClient(
		oaioption.WithAPIKey(apiKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithMaxRetries(sdkMaxRetries),
	)
	return &OpenAICompatProvider{
		providerName: providerName,
		apiBase:      baseURL,
		modelName:    modelName,
		modelType:    modelType,
		client:       client,
	}
}

// Chat sends a chat completion request.
func (p *OpenAICompatProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	chatReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.modelName),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		chatReq.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		chatReq.TopP = openai.Float(*req.TopP)
	}
	if req.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = openai.Float(*req.FrequencyPenalty)
	}

	logger.Info(
		"llm request",
		"provider", p.providerName,
		"modelType", p.modelType,
		"modelName", p.modelName,
		"inputChars", inputChars(req.Messages),
	)

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq)
	if err != nil {
		logger.Error("llm request send error", "provider", p.providerName, "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		logger.Error("llm no choices", "provider", p.providerName)
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"llm response",
		"provider", p.providerName,
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}

// normalizeSDKBaseURL accepts either an API root or a full endpoint URL and
// returns the root the SDK expects.
func normalizeSDKBaseURL(apiBase, defaultBase, endpointSuffix string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = defaultBase
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, endpointSuffix)
	return base + "/"
}
