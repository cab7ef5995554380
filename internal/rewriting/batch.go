// Package rewriting turns extracted leaf fragments into one generation request, validates the
// structured response and splices the results back into the document.
package rewriting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/generative-proxy/internal/prompts"
	"github.com/jonathan/generative-proxy/internal/types"
)

// Token budget per fragment and overall cap for one batch.
const (
	TokensPerFragment = 300
	MaxBatchTokens    = 4096
)

// TokenBudget returns min(n*300, 4096).
func TokenBudget(n int) int {
	return min(n*TokensPerFragment, MaxBatchTokens)
}

// BuildBatchSystemPrompt renders the system instruction for count fragments.
func BuildBatchSystemPrompt(mainPrompt string, personality types.Personality, count int) string {
	template := prompts.MustGet(prompts.RewritingFile, prompts.BatchSystemKey)
	return prompts.Format(template, map[string]string{
		"Count":             strconv.Itoa(count),
		"MainPrompt":        mainPrompt,
		"PersonalityPrompt": personality.Prompt,
	})
}

// BuildPayload encodes the fragments as the JSON array sent as the user message.
func BuildPayload(items []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// keep inline markup readable for the model
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("failed to encode fragments: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ParseBatchResponse decodes the first JSON array in raw model text, ignoring commentary
// before and after it, and requires exactly count elements. Non-string elements are kept as
// their JSON literal text.
func ParseBatchResponse(raw string, count int) ([]string, error) {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return nil, &ParseError{Message: "response did not contain a JSON array"}
	}

	var items []json.RawMessage
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&items); err != nil {
		return nil, &ParseError{Message: "response contained invalid JSON", Cause: err}
	}
	if len(items) != count {
		return nil, &ParseError{Message: fmt.Sprintf("expected %d items but got %d", count, len(items))}
	}

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = coerce(item)
	}
	return out, nil
}

func coerce(item json.RawMessage) string {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
