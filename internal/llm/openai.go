package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatCompletionsProvider calls an OpenAI-compatible /chat/completions endpoint.
type ChatCompletionsProvider struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewChatCompletionsProvider creates a provider for an OpenAI-compatible API. name is used
// in error messages.
func NewChatCompletionsProvider(name, apiKey, baseURL, model string, client *http.Client) (*ChatCompletionsProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatCompletionsProvider{
		name:    name,
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  client,
	}, nil
}

// NewCerebrasProvider creates the Cerebras backend.
func NewCerebrasProvider(apiKey, baseURL, model string, client *http.Client) (*ChatCompletionsProvider, error) {
	return NewChatCompletionsProvider(NameCerebras, apiKey, baseURL, model, client)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements Provider.
func (p *ChatCompletionsProvider) Generate(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: payload},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API %d: %s", p.name, resp.StatusCode, string(raw)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}

	var text string
	if len(parsed.Choices) > 0 {
		text = strings.TrimSpace(parsed.Choices[0].Message.Content)
	}
	if text == "" {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Message: p.name + " returned empty content"}
	}
	return text, nil
}
