package llm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// RecordingClient wraps an LLMClient and stores every call as an LLMConversation.
type RecordingClient struct {
	inner    LLMClient
	recorder ConversationRecorder
	provider string
	runID    uuid.UUID
}

// NewRecordingClient creates a new recording wrapper around an LLMClient.
// All conversations are grouped under runID.
func NewRecordingClient(inner LLMClient, recorder ConversationRecorder, provider string, runID uuid.UUID) *RecordingClient {
	return &RecordingClient{
		inner:    inner,
		recorder: recorder,
		provider: provider,
		runID:    runID,
	}
}

// GenerateResponse calls the inner client and records the conversation.
// A pending record is written first so in-flight calls are visible, then completed asynchronously.
// Recording failures never fail the call.
func (c *RecordingClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	conv := &models.LLMConversation{
		ID:            uuid.New(),
		RunID:         c.runID,
		Context:       GetContext(ctx),
		Provider:      c.provider,
		Endpoint:      c.inner.GetEndpoint(),
		Model:         c.inner.GetModel(),
		SystemMessage: systemMessage,
		Prompt:        prompt,
		Temperature:   &temperature,
		Status:        models.LLMConversationStatusPending,
	}

	debugPrefix := debugWriteRequest(conv.ID, conv.Model, systemMessage, prompt)

	pendingSaved := c.recorder.SavePending(ctx, conv) == nil

	start := time.Now()
	result, err := c.inner.GenerateResponse(WithConversationID(ctx, conv.ID), prompt, systemMessage, temperature)
	conv.DurationMs = int(time.Since(start).Milliseconds())

	if err != nil {
		conv.Status = models.LLMConversationStatusError
		conv.ErrorMessage = err.Error()
		debugWriteError(debugPrefix, conv.ID.String(), conv.Model, err.Error(), int64(conv.DurationMs))
		result = &GenerateResponseResult{ConversationID: conv.ID}
	} else {
		conv.Status = models.LLMConversationStatusSuccess
		if result != nil {
			result.ConversationID = conv.ID
			conv.ResponseContent = result.Content
			conv.PromptTokens = &result.PromptTokens
			conv.CompletionTokens = &result.CompletionTokens
			conv.TotalTokens = &result.TotalTokens
			debugWriteResponse(debugPrefix, conv.ID.String(), conv.Model, result.Content, int64(conv.DurationMs))
		}
	}

	if pendingSaved {
		c.recorder.RecordCompletion(conv)
	} else {
		c.recorder.Record(conv)
	}

	return result, err
}

// GetModel returns the inner client's model.
func (c *RecordingClient) GetModel() string {
	return c.inner.GetModel()
}

// GetEndpoint returns the inner client's endpoint.
func (c *RecordingClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}

var _ LLMClient = (*RecordingClient)(nil)
