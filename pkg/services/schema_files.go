package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/ddl"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/sanitize"
)

// FileJob describes a pipeline run from a schema file to output files.
type FileJob struct {
	InputSchema   string
	OutputSchema  string // optional; the described schema as indented JSON
	SQLOutput     string // optional; the rendered DDL
	TableName     string
	ResourceLabel string
	Mode          ddl.Mode
	// SkipTableDescription leaves the table description empty without calling the service.
	SkipTableDescription bool
}

// DescribeFile runs Describe on a schema file and writes the configured outputs.
// Outputs are written only when Describe succeeds.
func DescribeFile(ctx context.Context, svc SchemaDescriptionService, job FileJob) (*DescribeResult, error) {
	fields, err := models.LoadSchema(job.InputSchema)
	if err != nil {
		return nil, err
	}

	result, err := svc.Describe(ctx, &DescribeRequest{
		TableName:     job.TableName,
		ResourceLabel: job.ResourceLabel,
		Fields:        fields,
		Mode:          job.Mode,

		SkipTableDescription: job.SkipTableDescription,
	})
	if err != nil {
		return nil, err
	}

	if job.OutputSchema != "" {
		if err := WriteSchemaFile(job.OutputSchema, result.Fields); err != nil {
			return nil, err
		}
	}
	if job.SQLOutput != "" {
		if err := WriteSQLFile(job.SQLOutput, result.SQL); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// WriteSchemaFile writes fields as indented JSON, creating parent directories.
func WriteSchemaFile(path string, fields []models.Field) error {
	data, err := models.MarshalSchema(fields)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteSQLFile writes a statement with any code fences removed and a trailing newline.
func WriteSQLFile(path, sql string) error {
	sql = strings.TrimSpace(sanitize.StripCodeFences(sql))
	return writeFile(path, []byte(sql+"\n"))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
