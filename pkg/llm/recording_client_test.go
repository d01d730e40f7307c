package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// mockRecorder captures recorded conversations for testing.
type mockRecorder struct {
	mu          sync.Mutex
	pending     []*models.LLMConversation
	completions []*models.LLMConversation
	recordings  []*models.LLMConversation
	saveErr     error
}

func (m *mockRecorder) Record(conv *models.LLMConversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	convCopy := *conv
	m.recordings = append(m.recordings, &convCopy)
}

func (m *mockRecorder) SavePending(ctx context.Context, conv *models.LLMConversation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// The caller mutates conv after this call.
	convCopy := *conv
	m.pending = append(m.pending, &convCopy)
	return nil
}

func (m *mockRecorder) RecordCompletion(conv *models.LLMConversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	convCopy := *conv
	m.completions = append(m.completions, &convCopy)
}

func TestRecordingClient_GenerateResponse_RecordsSuccess(t *testing.T) {
	mockClient := NewMockLLMClient()
	mockClient.Model = "gpt-4o"
	mockClient.Endpoint = "https://api.openai.com/v1"

	var seenID uuid.UUID
	mockClient.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		seenID, _ = ConversationIDFromContext(ctx)
		return &GenerateResponseResult{
			Content:          `[{"name":"id","description":"Logical id"}]`,
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		}, nil
	}

	recorder := &mockRecorder{}
	runID := uuid.New()
	client := NewRecordingClient(mockClient, recorder, "openai", runID)

	ctx := WithChunkContext(context.Background(), "fhir_Patient", 0, "field_enrichment")
	result, err := client.GenerateResponse(ctx, "Describe fields", "You are a FHIR expert", 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorder.pending) != 1 {
		t.Fatalf("expected 1 pending record, got %d", len(recorder.pending))
	}
	pending := recorder.pending[0]
	if pending.Status != models.LLMConversationStatusPending {
		t.Errorf("expected pending status, got %q", pending.Status)
	}
	if pending.RunID != runID {
		t.Errorf("expected run id %s, got %s", runID, pending.RunID)
	}
	if pending.Provider != "openai" || pending.Model != "gpt-4o" {
		t.Errorf("unexpected provider/model %q/%q", pending.Provider, pending.Model)
	}
	if pending.Prompt != "Describe fields" || pending.SystemMessage != "You are a FHIR expert" {
		t.Errorf("prompt pair not recorded verbatim: %q / %q", pending.Prompt, pending.SystemMessage)
	}
	if pending.Context[ContextKeyTable] != "fhir_Patient" {
		t.Errorf("expected table in context, got %v", pending.Context)
	}

	if len(recorder.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(recorder.completions))
	}
	conv := recorder.completions[0]
	if conv.Status != models.LLMConversationStatusSuccess {
		t.Errorf("expected success, got %q", conv.Status)
	}
	if conv.ResponseContent != result.Content {
		t.Errorf("response not recorded: %q", conv.ResponseContent)
	}
	if conv.TotalTokens == nil || *conv.TotalTokens != 15 {
		t.Errorf("expected total tokens 15, got %v", conv.TotalTokens)
	}
	if result.ConversationID != conv.ID {
		t.Errorf("result conversation id %s != recorded %s", result.ConversationID, conv.ID)
	}
	if seenID != conv.ID {
		t.Errorf("inner client saw conversation id %s, want %s", seenID, conv.ID)
	}
}

func TestRecordingClient_GenerateResponse_RecordsError(t *testing.T) {
	mockClient := NewMockLLMClient()
	expectedErr := errors.New("LLM service unavailable")
	mockClient.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		return nil, expectedErr
	}

	recorder := &mockRecorder{}
	client := NewRecordingClient(mockClient, recorder, "ollama", uuid.New())

	result, err := client.GenerateResponse(context.Background(), "prompt", "system", 0.5)

	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if result == nil || result.ConversationID == uuid.Nil {
		t.Fatal("expected a result carrying the conversation id on error")
	}
	if len(recorder.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(recorder.completions))
	}
	conv := recorder.completions[0]
	if conv.Status != models.LLMConversationStatusError {
		t.Errorf("expected error status, got %q", conv.Status)
	}
	if conv.ErrorMessage != expectedErr.Error() {
		t.Errorf("expected error message %q, got %q", expectedErr.Error(), conv.ErrorMessage)
	}
}

func TestRecordingClient_FallsBackToRecordWhenPendingSaveFails(t *testing.T) {
	mockClient := NewMockLLMClient()
	mockClient.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: "ok"}, nil
	}

	recorder := &mockRecorder{saveErr: errors.New("database down")}
	client := NewRecordingClient(mockClient, recorder, "openai", uuid.New())

	result, err := client.GenerateResponse(context.Background(), "prompt", "system", 0)

	if err != nil {
		t.Fatalf("recording failure must not fail the call: %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("unexpected content %q", result.Content)
	}
	if len(recorder.completions) != 0 || len(recorder.recordings) != 1 {
		t.Errorf("expected 0 completions and 1 recording, got %d and %d", len(recorder.completions), len(recorder.recordings))
	}
}

func TestRecordingClient_DelegatesModelAndEndpoint(t *testing.T) {
	mockClient := NewMockLLMClient()
	mockClient.Model = "claude-sonnet"
	mockClient.Endpoint = "https://api.anthropic.com/v1"

	client := NewRecordingClient(mockClient, &mockRecorder{}, "anthropic", uuid.New())

	if client.GetModel() != "claude-sonnet" {
		t.Errorf("unexpected model %q", client.GetModel())
	}
	if client.GetEndpoint() != "https://api.anthropic.com/v1" {
		t.Errorf("unexpected endpoint %q", client.GetEndpoint())
	}
}
