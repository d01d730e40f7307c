package llm

import (
	"context"
	"testing"
)

func TestGetContext_ReturnsNilForEmptyContext(t *testing.T) {
	if got := GetContext(context.Background()); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestWithContext_MergesValues(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"a": 1, "b": 2})
	ctx = WithContext(ctx, map[string]any{"b": 3, "c": 4})

	got := GetContext(ctx)
	if got["a"] != 1 || got["b"] != 3 || got["c"] != 4 {
		t.Errorf("unexpected merged context: %v", got)
	}
}

func TestWithContext_DoesNotMutateParent(t *testing.T) {
	parent := WithContext(context.Background(), map[string]any{"a": 1})
	_ = WithContext(parent, map[string]any{"a": 2})

	if got := GetContext(parent)["a"]; got != 1 {
		t.Errorf("parent context changed: a=%v", got)
	}
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	ctx := WithContext(context.Background(), map[string]any{"a": 1})
	GetContext(ctx)["a"] = 99

	if got := GetContext(ctx)["a"]; got != 1 {
		t.Errorf("stored context mutated through copy: a=%v", got)
	}
}

func TestWithChunkContext(t *testing.T) {
	ctx := WithChunkContext(context.Background(), "proj.ds.fhir_Patient", 2, "field_enrichment")

	got := GetContext(ctx)
	if got[ContextKeyTable] != "proj.ds.fhir_Patient" {
		t.Errorf("table = %v", got[ContextKeyTable])
	}
	if got[ContextKeyChunk] != 2 {
		t.Errorf("chunk = %v", got[ContextKeyChunk])
	}
	if got[ContextKeyTemplate] != "field_enrichment" {
		t.Errorf("template = %v", got[ContextKeyTemplate])
	}
}

func TestWithChunkContext_TableLevelCallOmitsChunk(t *testing.T) {
	ctx := WithChunkContext(context.Background(), "t", -1, "table_description")

	if _, ok := GetContext(ctx)[ContextKeyChunk]; ok {
		t.Error("table-level call should not carry a chunk index")
	}
}
