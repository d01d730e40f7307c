package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// requestIDHeader carries the recorded conversation id so provider-side logs can be matched.
const requestIDHeader = "X-Request-Id"

type conversationIDKey struct{}

// WithConversationID attaches a conversation id to outgoing provider requests.
func WithConversationID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, conversationIDKey{}, id)
}

// ConversationIDFromContext returns the conversation id attached by WithConversationID.
func ConversationIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(conversationIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// contextAwareTransport sets X-Request-Id from the request context.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := ConversationIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the HTTP client shared by the provider SDKs.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &contextAwareTransport{base: http.DefaultTransport},
		Timeout:   timeout,
	}
}

// Client provides access to OpenAI-compatible chat completion endpoints
// (OpenAI, Azure-compatible gateways, vLLM, LM Studio).
type Client struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// Config holds configuration for creating a text-generation client.
type Config struct {
	Provider  Provider
	Endpoint  string // Base URL, e.g. "https://api.openai.com/v1"
	Model     string // Model name, e.g. "gpt-4o"
	APIKey    string // Optional for local endpoints
	MaxTokens int    // Reply budget for providers that require one
	Timeout   time.Duration
}

// DefaultOpenAIEndpoint is used when no endpoint is configured.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1"

// NewClient creates a new OpenAI-compatible client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOpenAIEndpoint
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(endpoint, "/")
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	return &Client{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm-openai"),
	}, nil
}

// GenerateResponse sends a system message and a user prompt as one chat completion.
func (c *Client) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(temperature),
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withProvider(err, string(ProviderOpenAI), c.model)
	}

	if len(resp.Choices) == 0 {
		return nil, withProvider(NewError(ErrorTypeEmpty, "no choices in response", false, nil), string(ProviderOpenAI), c.model)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}

var _ LLMClient = (*Client)(nil)
