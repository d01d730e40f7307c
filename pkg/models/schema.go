package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
)

// SchemaFormat identifies the encoding of a schema file.
type SchemaFormat string

const (
	SchemaFormatJSON SchemaFormat = "json"
	SchemaFormatYAML SchemaFormat = "yaml"
)

// schemaEnvelope accepts the object form emitted by some exporters: {"fields": [...]}.
type schemaEnvelope struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// FormatForPath picks the schema format from a file extension. Unknown extensions are JSON.
func FormatForPath(path string) SchemaFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SchemaFormatYAML
	default:
		return SchemaFormatJSON
	}
}

// LoadSchema reads a schema file. The format is chosen by extension.
func LoadSchema(path string) ([]Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	fields, err := ParseSchema(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return fields, nil
}

// ParseSchema decodes a field list, either as a bare list or wrapped in {"fields": [...]}.
func ParseSchema(data []byte, format SchemaFormat) ([]Field, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty schema", apperrors.ErrInvalidInput)
	}

	var fields []Field
	switch format {
	case SchemaFormatYAML:
		if err := yaml.Unmarshal(trimmed, &fields); err != nil {
			var env schemaEnvelope
			if envErr := yaml.Unmarshal(trimmed, &env); envErr != nil {
				return nil, fmt.Errorf("%w: decode yaml: %v", apperrors.ErrInvalidInput, err)
			}
			fields = env.Fields
		}
	default:
		if trimmed[0] == '{' {
			var env schemaEnvelope
			if err := json.Unmarshal(trimmed, &env); err != nil {
				return nil, fmt.Errorf("%w: decode json: %v", apperrors.ErrInvalidInput, err)
			}
			fields = env.Fields
		} else if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", apperrors.ErrInvalidInput, err)
		}
	}

	if err := ValidateSchema(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ValidateSchema checks that every field in the tree has a name.
// Duplicate sibling names are allowed and passed through.
func ValidateSchema(fields []Field) error {
	var invalid []string
	Walk(fields, func(path []string, f *Field) bool {
		if strings.TrimSpace(f.Name) == "" {
			invalid = append(invalid, strings.Join(path[:len(path)-1], ".")+"[?]")
		}
		return true
	})
	if len(invalid) > 0 {
		return fmt.Errorf("%w: fields without a name under %s", apperrors.ErrInvalidInput, strings.Join(invalid, ", "))
	}
	return nil
}

// MarshalSchema encodes fields as indented JSON with a trailing newline.
func MarshalSchema(fields []Field) ([]byte, error) {
	if fields == nil {
		fields = []Field{}
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
