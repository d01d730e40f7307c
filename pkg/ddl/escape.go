package ddl

import (
	"strings"
	"unicode"
)

// EscapeString makes s safe inside a double-quoted BigQuery string literal.
// The literal is always closed exactly once, whatever s contains.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QuoteTableName wraps a table reference in backticks when it holds characters that
// BigQuery does not accept unquoted, such as the hyphen in a project id.
func QuoteTableName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "`") {
		return name
	}
	for _, r := range name {
		if r == '_' || r == '.' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			continue
		}
		return "`" + strings.ReplaceAll(name, "`", "") + "`"
	}
	return name
}
