// Package ddl renders enriched field trees into BigQuery DDL.
// Rendering is deterministic and never fails; descriptions are expected to be sanitized already.
package ddl

import (
	"fmt"
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// Mode selects the statement shape produced by Render.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeAlter  Mode = "alter"
)

// ParseMode validates a mode name. Empty means create.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCreate:
		return ModeCreate, nil
	case ModeAlter:
		return ModeAlter, nil
	default:
		return "", fmt.Errorf("unknown ddl mode %q (want %q or %q)", s, ModeCreate, ModeAlter)
	}
}

// Render produces the statement for the given mode.
func Render(mode Mode, tableName string, fields []models.Field, tableDescription string) string {
	if mode == ModeAlter {
		return RenderAlterTable(tableName, fields, tableDescription)
	}
	return RenderCreateTable(tableName, fields, tableDescription)
}

// RenderCreateTable renders a CREATE OR REPLACE TABLE statement with one column per top-level field.
func RenderCreateTable(tableName string, fields []models.Field, tableDescription string) string {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = RenderColumn(f)
	}

	var b strings.Builder
	b.WriteString("CREATE OR REPLACE TABLE ")
	b.WriteString(QuoteTableName(tableName))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(columns, ",\n  "))
	b.WriteString("\n) ")
	writeDescriptionOption(&b, tableDescription)
	b.WriteString(";")
	return b.String()
}

// RenderColumn renders one column definition: name, type and an optional description option.
func RenderColumn(f models.Field) string {
	var b strings.Builder
	b.WriteString(f.Name)
	if t := columnType(f); t != "" {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	if f.Description != "" {
		b.WriteByte(' ')
		writeDescriptionOption(&b, f.Description)
	}
	return b.String()
}

// columnType returns STRUCT<...> for composites, the upper-cased declared type otherwise,
// wrapped in ARRAY<...> for repeated fields.
func columnType(f models.Field) string {
	var base string
	if f.IsComposite() {
		children := make([]string, len(f.Fields))
		for i, child := range f.Fields {
			children[i] = RenderColumn(child)
		}
		base = "STRUCT<" + strings.Join(children, ", ") + ">"
	} else {
		base = strings.ToUpper(strings.TrimSpace(f.Type))
	}

	if f.IsRepeated() {
		return "ARRAY<" + base + ">"
	}
	return base
}

func writeDescriptionOption(b *strings.Builder, description string) {
	b.WriteString(`OPTIONS(description="`)
	b.WriteString(EscapeString(description))
	b.WriteString(`")`)
}
