package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)
	fencePattern    = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*$")
)

// ErrNoJSON is returned when a reply holds no parseable JSON value.
var ErrNoJSON = errors.New("no valid JSON found in response")

// StripThinking removes a leading <think>...</think> block from a reply.
func StripThinking(response string) string {
	return thinkTagPattern.ReplaceAllString(response, "")
}

// CleanText strips a leading think block and Markdown fence lines from a plain-text reply
// and trims the result.
func CleanText(response string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(StripThinking(response), ""))
}

// ExtractJSON returns the first balanced JSON object or array in a reply. Think blocks,
// Markdown fences and surrounding prose are skipped.
func ExtractJSON(response string) (string, error) {
	text := StripThinking(response)

	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		end, ok := matchBrackets(text, start)
		if !ok {
			continue
		}
		if candidate := text[start:end]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	if trimmed := strings.TrimSpace(text); trimmed != "" && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", ErrNoJSON
}

// matchBrackets scans from the bracket at start and returns the index just past its
// matching close. Brackets inside string literals are ignored; a mismatched closer
// ends the scan.
func matchBrackets(s string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case c == '}' || c == ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// ParseJSONResponse extracts JSON from a reply and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	raw, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
