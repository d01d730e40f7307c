// Package llm provides text-generation clients and the plumbing around them:
// error classification, JSON extraction, bounded concurrency and conversation recording.
package llm

import (
	"context"

	"github.com/google/uuid"
)

// LLMClient generates text from a prompt.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends one system message and one user prompt and returns the reply.
	// Failures are returned as *Error.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// GenerateResponseResult is the reply to a GenerateResponse call.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// ConversationID is set when the call was recorded.
	ConversationID uuid.UUID
}
