package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/enrichment"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/llm"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a tool result so the client sees the details.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on, such as a malformed schema or an unknown template.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorResultFor maps a pipeline error onto an error result. Errors that are not
// the caller's to fix return nil so the handler can surface them as Go errors.
func errorResultFor(err error) *mcp.CallToolResult {
	msg := logging.SanitizeError(err)

	var enrichErr *enrichment.EnrichmentError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", msg)
	case errors.Is(err, prompts.ErrTemplateNotFound):
		return NewErrorResult("template_not_found", msg)
	case errors.Is(err, prompts.ErrMissingTemplateParam):
		return NewErrorResult("template_invalid", msg)
	case errors.As(err, &enrichErr):
		details := make([]map[string]any, 0, len(enrichErr.Errors))
		for _, ce := range enrichErr.Errors {
			details = append(details, map[string]any{
				"chunk":      ce.Chunk,
				"start":      ce.Start,
				"end":        ce.End,
				"error_type": string(llm.ClassifyError(ce.Err).Type),
			})
		}
		return NewErrorResultWithDetails("enrichment_failed", msg, details)
	default:
		return nil
	}
}
