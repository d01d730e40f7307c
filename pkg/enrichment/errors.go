package enrichment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/logging"
)

// ErrNoFields is wrapped by ParseError when the response holds no field list.
var ErrNoFields = errors.New("response contains no field list")

// ParseError reports a response that is not a well-formed field list for its chunk.
type ParseError struct {
	Chunk    int
	Reason   string
	Response string // preview of the raw response
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("chunk %d: parse response: %s", e.Chunk, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(chunk int, response, reason string, err error) *ParseError {
	return &ParseError{
		Chunk:    chunk,
		Reason:   reason,
		Response: logging.Preview(response),
		Err:      err,
	}
}

// ChunkError records why one chunk contributed nothing to the result.
type ChunkError struct {
	Chunk int
	Start int // first top-level field index, inclusive
	End   int // last top-level field index, exclusive
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (fields %d-%d): %v", e.Chunk, e.Start, e.End, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// EnrichmentError is returned when no chunk could be enriched.
type EnrichmentError struct {
	Errors []*ChunkError
}

func (e *EnrichmentError) Error() string {
	if len(e.Errors) == 1 {
		return "enrichment failed: " + e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		parts[i] = ce.Error()
	}
	return fmt.Sprintf("enrichment failed for all %d chunks: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes every chunk failure to errors.Is and errors.As.
func (e *EnrichmentError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}
