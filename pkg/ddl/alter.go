package ddl

import (
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// RenderAlterTable updates descriptions on an existing table instead of recreating it.
// Only top-level columns are altered; BigQuery cannot set options on nested fields this way.
func RenderAlterTable(tableName string, fields []models.Field, tableDescription string) string {
	table := QuoteTableName(tableName)

	var statements []string
	if tableDescription != "" {
		statements = append(statements,
			"ALTER TABLE "+table+" SET OPTIONS(description=\""+EscapeString(tableDescription)+"\");")
	}
	for _, f := range fields {
		if f.Description == "" {
			continue
		}
		statements = append(statements,
			"ALTER TABLE "+table+" ALTER COLUMN "+f.Name+" SET OPTIONS(description=\""+EscapeString(f.Description)+"\");")
	}
	return strings.Join(statements, "\n")
}
