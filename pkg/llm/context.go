package llm

import (
	"context"
	"maps"
)

type contextKey string

const (
	llmContextKey contextKey = "llm_context"
)

// Keys set by WithChunkContext.
const (
	ContextKeyTable    = "table"
	ContextKeyChunk    = "chunk"
	ContextKeyTemplate = "template"
)

// WithContext returns a context carrying recording metadata merged over any already present.
func WithContext(ctx context.Context, values map[string]any) context.Context {
	merged := GetContext(ctx)
	if merged == nil {
		merged = make(map[string]any, len(values))
	}
	maps.Copy(merged, values)
	return context.WithValue(ctx, llmContextKey, merged)
}

// GetContext returns a copy of the recording metadata, or nil when none is attached.
func GetContext(ctx context.Context) map[string]any {
	if c, ok := ctx.Value(llmContextKey).(map[string]any); ok {
		return maps.Clone(c)
	}
	return nil
}

// WithChunkContext tags a call with the table, chunk index and template it serves.
// A negative chunk marks a table-level call.
func WithChunkContext(ctx context.Context, table string, chunk int, template string) context.Context {
	values := map[string]any{}
	if table != "" {
		values[ContextKeyTable] = table
	}
	if chunk >= 0 {
		values[ContextKeyChunk] = chunk
	}
	if template != "" {
		values[ContextKeyTemplate] = template
	}
	return WithContext(ctx, values)
}
