package llm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
	}{
		{"", ProviderOpenAI},
		{"openai", ProviderOpenAI},
		{" Anthropic ", ProviderAnthropic},
		{"huggingface", ProviderHuggingFace},
		{"hf", ProviderHuggingFace},
		{"OLLAMA", ProviderOllama},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseProvider("vertex")
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestNewClientFromConfig_BuildsEachProvider(t *testing.T) {
	tests := []struct {
		provider Provider
		check    func(t *testing.T, c LLMClient)
	}{
		{ProviderOpenAI, func(t *testing.T, c LLMClient) { assert.IsType(t, &Client{}, c) }},
		{ProviderAnthropic, func(t *testing.T, c LLMClient) { assert.IsType(t, &AnthropicClient{}, c) }},
		{ProviderHuggingFace, func(t *testing.T, c LLMClient) { assert.IsType(t, &HuggingFaceClient{}, c) }},
		{ProviderOllama, func(t *testing.T, c LLMClient) { assert.IsType(t, &OllamaClient{}, c) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			client, err := NewClientFromConfig(&Config{
				Provider: tt.provider,
				Model:    "test-model",
				APIKey:   "test-key",
			}, zap.NewNop())
			require.NoError(t, err)
			tt.check(t, client)
			assert.Equal(t, "test-model", client.GetModel())
		})
	}
}

func TestNewClientFromConfig_DefaultsToOpenAI(t *testing.T) {
	client, err := NewClientFromConfig(&Config{Model: "gpt-4o", APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIEndpoint, client.GetEndpoint())
}

func TestNewClientFromConfig_Errors(t *testing.T) {
	_, err := NewClientFromConfig(&Config{Provider: "vertex", Model: "m"}, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)

	_, err = NewClientFromConfig(&Config{Provider: ProviderOpenAI}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create openai client")
}

func TestClientFactory_Create_WithoutRecorder(t *testing.T) {
	factory := NewClientFactory(zap.NewNop())

	client, err := factory.Create(&Config{Model: "gpt-4o"}, uuid.New())
	require.NoError(t, err)

	_, isRecording := client.(*RecordingClient)
	assert.False(t, isRecording, "should not be a RecordingClient when no recorder is set")
}

func TestClientFactory_Create_RecorderWrapsClient(t *testing.T) {
	factory := NewClientFactory(zap.NewNop())
	factory.SetRecorder(&mockRecorder{})

	client, err := factory.Create(&Config{Provider: ProviderOllama, Model: "llama3"}, uuid.New())
	require.NoError(t, err)

	rc, isRecording := client.(*RecordingClient)
	require.True(t, isRecording)
	assert.Equal(t, "ollama", rc.provider)
	assert.Equal(t, "llama3", rc.GetModel())
}
