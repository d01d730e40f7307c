// Package prompts resolves named prompt templates and renders them from named parameters.
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrTemplateNotFound is returned when no template is stored under the requested name.
	ErrTemplateNotFound = errors.New("prompt template not found")
	// ErrMissingTemplateParam is returned when a template references a parameter the caller did not supply.
	ErrMissingTemplateParam = errors.New("missing template parameter")
)

// Template is a named prompt with {param} placeholders.
// "{{" and "}}" render as literal braces, so JSON examples can be embedded.
type Template struct {
	Name string
	Text string
}

// Params returns the distinct parameter names referenced by the template, in order of first use.
func (t *Template) Params() []string {
	var names []string
	seen := make(map[string]bool)
	scan(t.Text, func(literal string) {}, func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})
	return names
}

// Validate checks that params supplies every parameter the template references.
func (t *Template) Validate(params map[string]string) error {
	var missing []string
	for _, name := range t.Params() {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("template %q: %w: %s", t.Name, ErrMissingTemplateParam, strings.Join(missing, ", "))
	}
	return nil
}

// Render substitutes params into the template. It fails without producing partial output
// when a referenced parameter is missing. Extra parameters are ignored.
func (t *Template) Render(params map[string]string) (string, error) {
	if err := t.Validate(params); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(t.Text))
	scan(t.Text, func(literal string) {
		b.WriteString(literal)
	}, func(name string) {
		b.WriteString(params[name])
	})
	return b.String(), nil
}

// scan walks text, reporting literal runs and placeholder names.
// A brace that does not open a valid placeholder is kept as a literal.
func scan(text string, onLiteral func(string), onParam func(string)) {
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				onLiteral(text[start:i] + "{")
				i++
				start = i + 1
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				continue
			}
			name := text[i+1 : i+1+end]
			if !isIdentifier(name) {
				continue
			}
			onLiteral(text[start:i])
			onParam(name)
			i += end + 1
			start = i + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				onLiteral(text[start:i] + "}")
				i++
				start = i + 1
			}
		}
	}
	onLiteral(text[start:])
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}
