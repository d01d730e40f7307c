package jsonutil

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{"string value", json.RawMessage(`"Logical id of this artifact"`), "Logical id of this artifact"},
		{"integer value", json.RawMessage(`42`), "42"},
		{"float value", json.RawMessage(`3.14`), "3.14"},
		{"boolean", json.RawMessage(`true`), "true"},
		{"null value", json.RawMessage(`null`), ""},
		{"padded null", json.RawMessage(" null\n"), ""},
		{"empty raw message", json.RawMessage{}, ""},
		{"nil raw message", nil, ""},
		{"large integer preserves precision", json.RawMessage(`9007199254740992`), "9007199254740992"},
		{"nested object falls back to raw string", json.RawMessage(`{"key":"value"}`), `{"key":"value"}`},
		{"escaped characters", json.RawMessage(`"say \"hi\"\nnow"`), "say \"hi\"\nnow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleString_InStruct(t *testing.T) {
	var got []struct {
		Name        FlexibleString `json:"name"`
		Description FlexibleString `json:"description"`
	}
	data := `[{"name":"id","description":"Logical id"},{"name":7,"description":null},{"name":"active"}]`

	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].Name != "id" || got[0].Description.String() != "Logical id" {
		t.Errorf("unexpected first item: %+v", got[0])
	}
	if got[1].Name != "7" || got[1].Description != "" {
		t.Errorf("unexpected second item: %+v", got[1])
	}
	if got[2].Description != "" {
		t.Errorf("missing description should be empty, got %q", got[2].Description)
	}
}

func TestUnwrapArray(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare array", ` [1, 2] `, `[1, 2]`, false},
		{"named key", `{"fields": [1], "other": [2]}`, `[1]`, false},
		{"second key", `{"schema": [3]}`, `[3]`, false},
		{"single unnamed array", `{"columns": [4], "note": "x"}`, `[4]`, false},
		{"two unnamed arrays", `{"a": [1], "b": [2]}`, "", true},
		{"object without array", `{"a": 1}`, "", true},
		{"scalar", `"text"`, "", true},
		{"empty", ``, "", true},
		{"invalid object", `{"a": [}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnwrapArray([]byte(tt.input), "fields", "schema")
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("UnwrapArray(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnwrapArray_ErrNotArray(t *testing.T) {
	_, err := UnwrapArray([]byte(`{"a": 1}`))
	if !errors.Is(err, ErrNotArray) {
		t.Errorf("expected ErrNotArray, got %v", err)
	}
}
