package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/go-huggingface"
	"go.uber.org/zap"
)

// DefaultHuggingFaceMaxNewTokens bounds the reply when no budget is configured.
const DefaultHuggingFaceMaxNewTokens = 4096

// HuggingFaceClient generates text with the Hugging Face inference API.
// The API takes a single input string, so the system message is prepended to the prompt.
type HuggingFaceClient struct {
	client    *huggingface.InferenceClient
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewHuggingFaceClient creates a client for the Hugging Face text-generation task.
func NewHuggingFaceClient(cfg *Config, logger *zap.Logger) (*HuggingFaceClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for huggingface")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultHuggingFaceMaxNewTokens
	}

	return &HuggingFaceClient{
		client:    huggingface.NewInferenceClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("llm-huggingface"),
	}, nil
}

// GenerateResponse runs one text-generation request.
func (c *HuggingFaceClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	input := prompt
	if systemMessage != "" {
		input = systemMessage + "\n\n" + prompt
	}

	maxTokens := c.maxTokens
	returnFullText := false
	params := huggingface.TextGenerationParameters{
		MaxNewTokens:   &maxTokens,
		ReturnFullText: &returnFullText,
	}
	// The inference API rejects a temperature of exactly zero.
	if temperature > 0 {
		params.Temperature = &temperature
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(input)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	res, err := c.client.TextGeneration(ctx, &huggingface.TextGenerationRequest{
		Inputs:     input,
		Model:      c.model,
		Parameters: params,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withProvider(err, string(ProviderHuggingFace), c.model)
	}
	if len(res) == 0 || strings.TrimSpace(res[0].GeneratedText) == "" {
		return nil, withProvider(NewError(ErrorTypeEmpty, "no generated text in response", false, nil), string(ProviderHuggingFace), c.model)
	}

	c.logger.Info("LLM request completed",
		zap.Int("response_len", len(res[0].GeneratedText)),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{Content: res[0].GeneratedText}, nil
}

// GetModel returns the configured model name.
func (c *HuggingFaceClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the inference API host.
func (c *HuggingFaceClient) GetEndpoint() string {
	return "https://api-inference.huggingface.co"
}

var _ LLMClient = (*HuggingFaceClient)(nil)
