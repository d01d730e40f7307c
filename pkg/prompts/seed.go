package prompts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/apperrors"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// seedFile is the YAML layout of a prompt seed file:
//
//	prompts:
//	  - name: field_enrichment
//	    template: |
//	      ...
type seedFile struct {
	Prompts []models.Prompt `yaml:"prompts"`
}

// LoadSeedFile reads prompt templates from a YAML seed file.
func LoadSeedFile(path string) ([]models.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML and rejects entries without a name or template.
func ParseSeed(data []byte) ([]models.Prompt, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode prompt seed: %v", apperrors.ErrInvalidInput, err)
	}
	for i, p := range f.Prompts {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: prompt seed entry %d has no name", apperrors.ErrInvalidInput, i)
		}
		if strings.TrimSpace(p.Template) == "" {
			return nil, fmt.Errorf("%w: prompt seed entry %q has no template", apperrors.ErrInvalidInput, p.Name)
		}
	}
	return f.Prompts, nil
}

// DefaultPrompts returns Defaults() as prompt records, sorted by name.
func DefaultPrompts() []models.Prompt {
	defaults := Defaults()
	out := make([]models.Prompt, 0, len(defaults))
	for name, text := range defaults {
		out = append(out, models.Prompt{Name: name, Template: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PromptStore is the subset of the prompt repository used for seeding.
type PromptStore interface {
	PromptSource
	Upsert(ctx context.Context, p *models.Prompt) error
}

// Seed writes prompts into the store. Existing prompts are kept unless overwrite is set.
// It returns the number of prompts written.
func Seed(ctx context.Context, store PromptStore, prompts []models.Prompt, overwrite bool) (int, error) {
	written := 0
	for i := range prompts {
		p := prompts[i]
		if !overwrite {
			_, err := store.GetByName(ctx, p.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				return written, fmt.Errorf("check prompt %q: %w", p.Name, err)
			}
		}
		if err := store.Upsert(ctx, &p); err != nil {
			return written, fmt.Errorf("seed prompt %q: %w", p.Name, err)
		}
		written++
	}
	return written, nil
}
