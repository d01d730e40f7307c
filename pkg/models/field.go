package models

import (
	"strings"
)

// Mode is the BigQuery column mode of a field.
type Mode string

const (
	ModeNullable Mode = "NULLABLE"
	ModeRequired Mode = "REQUIRED"
	ModeRepeated Mode = "REPEATED"
)

// Composite type markers. A field with children is composite whatever its declared type says.
const (
	TypeRecord = "RECORD"
	TypeStruct = "STRUCT"
)

// Field is one node of a nested table schema.
// Children are ordered; a field with children is a STRUCT even when Type says otherwise.
type Field struct {
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Mode        Mode    `json:"mode,omitempty" yaml:"mode,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// EffectiveMode returns the normalized mode. An empty mode means NULLABLE.
func (f Field) EffectiveMode() Mode {
	m := Mode(strings.ToUpper(strings.TrimSpace(string(f.Mode))))
	if m == "" {
		return ModeNullable
	}
	return m
}

// IsRepeated reports whether the field renders as an ARRAY.
func (f Field) IsRepeated() bool {
	return f.EffectiveMode() == ModeRepeated
}

// IsComposite reports whether the field renders as a STRUCT.
func (f Field) IsComposite() bool {
	if len(f.Fields) > 0 {
		return true
	}
	t := strings.ToUpper(strings.TrimSpace(f.Type))
	return t == TypeRecord || t == TypeStruct
}

// Clone returns a deep copy of the field and its descendants.
func (f Field) Clone() Field {
	out := f
	out.Fields = CloneFields(f.Fields)
	return out
}

// WithDescription returns a deep copy of the field carrying the given description.
func (f Field) WithDescription(description string) Field {
	out := f.Clone()
	out.Description = description
	return out
}

// CloneFields deep-copies a list of fields. A nil list stays nil.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// Walk visits every field depth-first in pre-order. path holds the names from the root
// down to and including the visited field. Returning false from fn skips the field's children.
func Walk(fields []Field, fn func(path []string, f *Field) bool) {
	walk(fields, nil, fn)
}

func walk(fields []Field, parent []string, fn func(path []string, f *Field) bool) {
	for i := range fields {
		path := make([]string, len(parent)+1)
		copy(path, parent)
		path[len(parent)] = fields[i].Name
		if fn(path, &fields[i]) {
			walk(fields[i].Fields, path, fn)
		}
	}
}

// CountFields returns the number of fields in the tree, nested ones included.
func CountFields(fields []Field) int {
	n := 0
	Walk(fields, func(_ []string, _ *Field) bool {
		n++
		return true
	})
	return n
}

// FieldNames returns the names of the given fields in order.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// MapDescriptions returns a deep copy of the tree with every description replaced by fn(description).
func MapDescriptions(fields []Field, fn func(string) string) []Field {
	out := CloneFields(fields)
	Walk(out, func(_ []string, f *Field) bool {
		f.Description = fn(f.Description)
		return true
	})
	return out
}
