package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CloudflareProvider calls the Workers AI REST endpoint
// POST {base}/accounts/{account}/ai/run/{model}.
type CloudflareProvider struct {
	accountID string
	apiToken  string
	baseURL   string
	model     string
	client    *http.Client
}

// NewCloudflareProvider creates the Workers AI backend.
func NewCloudflareProvider(accountID, apiToken, baseURL, model string, client *http.Client) (*CloudflareProvider, error) {
	if accountID == "" || apiToken == "" {
		return nil, fmt.Errorf("%s: account id and API token are required", NameCloudflare)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CloudflareProvider{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		client:    client,
	}, nil
}

type cloudflareResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Response json.RawMessage `json:"response"`
	} `json:"result"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *CloudflareProvider) endpoint() string {
	// model ids contain slashes and an '@' that belong in the path as-is
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s", p.baseURL, url.PathEscape(p.accountID), p.model)
}

// Generate implements Provider.
func (p *CloudflareProvider) Generate(ctx context.Context, systemPrompt, payload string, maxTokens int) (string, error) {
	body, err := json.Marshal(map[string]any{
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: payload},
		},
		"max_tokens":  maxTokens,
		"temperature": Temperature,
	})
	if err != nil {
		return "", &ProviderError{Provider: NameCloudflare, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: NameCloudflare, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: NameCloudflare, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: NameCloudflare, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider:   NameCloudflare,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Cloudflare AI API %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var parsed cloudflareResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProviderError{Provider: NameCloudflare, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}

	// non-string responses count as empty
	var text string
	if len(parsed.Result.Response) > 0 {
		_ = json.Unmarshal(parsed.Result.Response, &text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ProviderError{Provider: NameCloudflare, StatusCode: resp.StatusCode, Message: "Cloudflare AI returned empty content"}
	}
	return text, nil
}
