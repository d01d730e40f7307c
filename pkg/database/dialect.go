package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
)

// Dialect identifies the SQL database behind the prompt store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured store type to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectSQLite, DialectMySQL, DialectPostgres:
		return d, nil
	case "sqlite3":
		return DialectSQLite, nil
	case "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("%w: store dialect %q", apperrors.ErrUnsupported, name)
	}
}

// Rebind rewrites ? placeholders into the dialect's form. Only Postgres differs.
// Question marks inside quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
