// Package sanitize normalizes generated description text so it is safe to store
// and to place inside a single-line SQL string literal.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// fenceLinePattern matches a Markdown fence line with an optional info string.
var fenceLinePattern = regexp.MustCompile("^(```|~~~)[A-Za-z0-9_+.-]*$")

// DefaultMaxLength is the description ceiling BigQuery enforces on column and table options.
const DefaultMaxLength = 1024

// Sanitizer cleans description text. It is stateless and safe for concurrent use.
type Sanitizer struct {
	maxLength int
}

// New returns a Sanitizer that truncates to maxLength characters.
// A non-positive maxLength selects DefaultMaxLength.
func New(maxLength int) *Sanitizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Sanitizer{maxLength: maxLength}
}

// MaxLength returns the ceiling in characters.
func (s *Sanitizer) MaxLength() int {
	return s.maxLength
}

// Sanitize returns text with code fences removed, line breaks turned into spaces,
// other control characters dropped and whitespace runs collapsed. The result is trimmed
// and cut to the ceiling on a character boundary. It never fails.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	text = StripCodeFences(text)

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	return Truncate(b.String(), s.maxLength)
}

// Truncate cuts text to at most maxLength characters without splitting a multi-byte
// character, then drops any trailing space left at the cut.
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	n := 0
	for i := range text {
		if n == maxLength {
			return strings.TrimRight(text[:i], " ")
		}
		n++
	}
	return text
}

// StripCodeFences removes Markdown fence lines (```, ```json, ~~~) and leaves their content.
func StripCodeFences(text string) string {
	if !strings.Contains(text, "```") && !strings.Contains(text, "~~~") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if fenceLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	// Inline fences on a single line, e.g. "```Patient identifier```".
	return strings.ReplaceAll(out, "```", "")
}

var defaultSanitizer = New(DefaultMaxLength)

// Sanitize cleans text with the default ceiling.
func Sanitize(text string) string {
	return defaultSanitizer.Sanitize(text)
}
