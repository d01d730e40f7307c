package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// DefaultOllamaEndpoint is the address of a local Ollama server.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient generates text with a local Ollama server through langchaingo.
type OllamaClient struct {
	llm      *ollama.LLM
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewOllamaClient creates a client for an Ollama server.
func NewOllamaClient(cfg *Config, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	model, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(endpoint),
		ollama.WithHTTPClient(newHTTPClient(cfg.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &OllamaClient{
		llm:      model,
		endpoint: endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm-ollama"),
	}, nil
}

// GenerateResponse sends a system and a human message as one chat request.
func (c *OllamaClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemMessage),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withProvider(err, string(ProviderOllama), c.model)
	}
	if len(resp.Choices) == 0 {
		return nil, withProvider(NewError(ErrorTypeEmpty, "no choices in response", false, nil), string(ProviderOllama), c.model)
	}

	choice := resp.Choices[0]
	result := &GenerateResponseResult{
		Content:          choice.Content,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetModel returns the configured model name.
func (c *OllamaClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *OllamaClient) GetEndpoint() string {
	return c.endpoint
}

var _ LLMClient = (*OllamaClient)(nil)
