package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMConversation is one text-generation call with its verbatim prompt and response.
type LLMConversation struct {
	ID      uuid.UUID      `json:"id"`
	RunID   uuid.UUID      `json:"run_id"`
	Context map[string]any `json:"context,omitempty"` // table, chunk, template name

	Provider string `json:"provider"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`

	SystemMessage string   `json:"system_message"`
	Prompt        string   `json:"prompt"`
	Temperature   *float64 `json:"temperature,omitempty"`

	ResponseContent string `json:"response_content,omitempty"`

	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
	DurationMs       int  `json:"duration_ms"`

	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Status values for LLM conversations.
const (
	LLMConversationStatusPending = "pending"
	LLMConversationStatusSuccess = "success"
	LLMConversationStatusError   = "error"
)
