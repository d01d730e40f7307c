package llm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
)

// Provider names a text-generation backend.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderHuggingFace Provider = "huggingface"
	ProviderOllama      Provider = "ollama"
)

// Providers lists the supported backends.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderHuggingFace, ProviderOllama}

// ParseProvider maps a configured provider name to a Provider. Empty means openai.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderOpenAI, nil
	case ProviderOpenAI, ProviderAnthropic, ProviderHuggingFace, ProviderOllama:
		return p, nil
	case "hf":
		return ProviderHuggingFace, nil
	default:
		return "", fmt.Errorf("%w: llm provider %q", apperrors.ErrUnsupported, name)
	}
}

// ClientFactory builds provider clients from configuration.
type ClientFactory struct {
	recorder ConversationRecorder // Optional: if set, wraps clients to record conversations
	logger   *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(logger *zap.Logger) *ClientFactory {
	return &ClientFactory{logger: logger}
}

// SetRecorder enables conversation recording for all clients created by this factory.
// Pass nil to disable recording.
func (f *ClientFactory) SetRecorder(recorder ConversationRecorder) {
	f.recorder = recorder
}

// Create builds the client for cfg.Provider. When a recorder is set, the client is
// wrapped so that every call is stored under runID.
func (f *ClientFactory) Create(cfg *Config, runID uuid.UUID) (LLMClient, error) {
	client, err := NewClientFromConfig(cfg, f.logger)
	if err != nil {
		return nil, err
	}
	if f.recorder != nil {
		return NewRecordingClient(client, f.recorder, string(cfg.Provider), runID), nil
	}
	return client, nil
}

// NewClientFromConfig builds the client for cfg.Provider.
func NewClientFromConfig(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	var (
		client LLMClient
		err    error
	)
	switch provider {
	case ProviderOpenAI:
		client, err = NewClient(cfg, logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	case ProviderHuggingFace:
		client, err = NewHuggingFaceClient(cfg, logger)
	case ProviderOllama:
		client, err = NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: llm provider %q", apperrors.ErrUnsupported, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}
	return client, nil
}
