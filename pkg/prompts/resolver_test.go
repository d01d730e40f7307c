package prompts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// fakePromptStore is an in-memory PromptStore.
type fakePromptStore struct {
	prompts map[string]*models.Prompt
	getErr  error
	upserts int
}

func newFakePromptStore() *fakePromptStore {
	return &fakePromptStore{prompts: make(map[string]*models.Prompt)}
}

func (s *fakePromptStore) GetByName(ctx context.Context, name string) (*models.Prompt, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.prompts[name]
	if !ok {
		return nil, fmt.Errorf("prompt %q: %w", name, apperrors.ErrNotFound)
	}
	return p, nil
}

func (s *fakePromptStore) Upsert(ctx context.Context, p *models.Prompt) error {
	s.upserts++
	copied := *p
	s.prompts[p.Name] = &copied
	return nil
}

func TestMemoryResolver(t *testing.T) {
	r := NewMemoryResolver(Defaults())

	tmpl, err := r.GetTemplate(context.Background(), FieldEnrichmentTemplate)
	require.NoError(t, err)
	assert.Equal(t, FieldEnrichmentTemplate, tmpl.Name)

	_, err = r.GetTemplate(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	r.Set("nope", "now {here}")
	tmpl, err = r.GetTemplate(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, []string{"here"}, tmpl.Params())
	assert.Equal(t, []string{"field_enrichment", "nope", "table_description"}, r.Names())
}

func TestMemoryResolver_CopiesInput(t *testing.T) {
	src := map[string]string{"a": "x"}
	r := NewMemoryResolver(src)
	src["a"] = "changed"

	tmpl, err := r.GetTemplate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "x", tmpl.Text)
}

func TestStoreResolver(t *testing.T) {
	store := newFakePromptStore()
	store.prompts["table_description"] = &models.Prompt{Name: "table_description", Template: "Describe {resource_label}"}
	r := NewStoreResolver(store)

	tmpl, err := r.GetTemplate(context.Background(), "table_description")
	require.NoError(t, err)
	assert.Equal(t, "Describe {resource_label}", tmpl.Text)

	_, err = r.GetTemplate(context.Background(), "field_enrichment")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestStoreResolver_StoreFailureIsNotNotFound(t *testing.T) {
	store := newFakePromptStore()
	store.getErr = errors.New("database is locked")

	_, err := NewStoreResolver(store).GetTemplate(context.Background(), "x")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTemplateNotFound))
	assert.Contains(t, err.Error(), "database is locked")
}
