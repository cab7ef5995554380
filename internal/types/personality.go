// Package types provides type definitions for structured data shared by the proxy, the admin API and the CLI.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// Personality is a named prompt fragment that controls the tone of rewritten copy.
type Personality struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// ConfigSnapshot is the read-only view of the configuration store used for one request.
type ConfigSnapshot struct {
	MainPrompt    string        `json:"mainPrompt"`
	Personalities []Personality `json:"personalities"`
}

// Select returns the personality with the given id, falling back to the first one.
// The second return value reports whether the requested id was found.
func (s ConfigSnapshot) Select(id string) (Personality, bool) {
	for _, p := range s.Personalities {
		if p.ID == id {
			return p, true
		}
	}
	if len(s.Personalities) == 0 {
		return Personality{}, false
	}
	return s.Personalities[0], false
}

// UpdatePromptRequest is the body of PUT /api/config/prompt.
type UpdatePromptRequest struct {
	MainPrompt string `json:"mainPrompt" validate:"required"`
}

// UpsertPersonalityRequest is the body of POST /api/config/personalities.
type UpsertPersonalityRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
}

// ReplacePersonalitiesRequest is the body of PUT /api/config/personalities.
// Entries are decoded loosely and normalized by the store.
type ReplacePersonalitiesRequest struct {
	Personalities []map[string]any `json:"personalities"`
}

// Validate validates the UpdatePromptRequest using the validator.
func (r *UpdatePromptRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpsertPersonalityRequest using the validator.
func (r *UpsertPersonalityRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
