package prompts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// Well-known template names used by the enrichment engine.
const (
	TableDescriptionTemplate = "table_description"
	FieldEnrichmentTemplate  = "field_enrichment"
)

// Resolver looks up prompt templates by name.
// Implementations return an error wrapping ErrTemplateNotFound for unknown names.
type Resolver interface {
	GetTemplate(ctx context.Context, name string) (*Template, error)
}

// MemoryResolver serves templates from an in-process map. It is safe for concurrent use.
type MemoryResolver struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewMemoryResolver copies templates into a new resolver. Pass Defaults() for the built-in set.
func NewMemoryResolver(templates map[string]string) *MemoryResolver {
	r := &MemoryResolver{templates: make(map[string]string, len(templates))}
	for name, text := range templates {
		r.templates[name] = text
	}
	return r
}

// GetTemplate implements Resolver.
func (r *MemoryResolver) GetTemplate(_ context.Context, name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return &Template{Name: name, Text: text}, nil
}

// Set stores or replaces a template.
func (r *MemoryResolver) Set(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = text
}

// Names returns the stored template names, sorted.
func (r *MemoryResolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ Resolver = (*MemoryResolver)(nil)

// PromptSource is the subset of the prompt repository the StoreResolver needs.
type PromptSource interface {
	GetByName(ctx context.Context, name string) (*models.Prompt, error)
}

// StoreResolver resolves templates from the persistent prompt store.
type StoreResolver struct {
	source PromptSource
}

// NewStoreResolver creates a resolver backed by a prompt repository.
func NewStoreResolver(source PromptSource) *StoreResolver {
	return &StoreResolver{source: source}
}

// GetTemplate implements Resolver.
func (r *StoreResolver) GetTemplate(ctx context.Context, name string) (*Template, error) {
	p, err := r.source.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("load prompt %q: %w", name, err)
	}
	return &Template{Name: p.Name, Text: p.Template}, nil
}

var _ Resolver = (*StoreResolver)(nil)
