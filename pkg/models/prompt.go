package models

import "time"

// Prompt is a named template stored in the prompt store.
type Prompt struct {
	ID        int64     `json:"id" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Template  string    `json:"template" yaml:"template"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
