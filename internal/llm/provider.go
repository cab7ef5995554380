// Package llm provides the generation backends used by the rewriter and the ordered chain
// they are tried in.
package llm

import (
	"context"
	"fmt"
)

// Provider names as they appear in error labels and debug headers.
const (
	NameCerebras   = "Cerebras"
	NameCloudflare = "Cloudflare Workers AI"
	NameGemini     = "Gemini"
)

// Temperature used for every rewrite request.
const Temperature = 0.8

// Provider generates raw model text for one system instruction and one user payload.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error)

// Generate implements Provider.
func (f ProviderFunc) Generate(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error) {
	return f(ctx, systemPrompt, payload, maxTokens)
}

// Backend is a configured provider with its display name and model.
type Backend struct {
	Name     string
	Model    string
	Provider Provider
}

// ProviderError is a failed backend call.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
