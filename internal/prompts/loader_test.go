package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_BatchSystemPrompt(t *testing.T) {
	prompt, err := Get(RewritingFile, BatchSystemKey)
	require.NoError(t, err)

	lines := strings.Split(prompt, "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "You will receive a JSON array of {{.Count}} website text snippets.", lines[0])
	assert.Equal(t, "Personality instructions: {{.PersonalityPrompt}}", lines[7])
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(RewritingFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
	assert.Equal(t,
		"Rewrite webpage copy to match the given personality while keeping the same meaning and length.",
		MustGet(RewritingFile, DefaultMainPrompt))
}

func TestFormat(t *testing.T) {
	out := Format("{{.A}} and {{.B}} and {{.A}}", map[string]string{"A": "x", "B": "y"})
	assert.Equal(t, "x and y and x", out)
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	out := Format("main: {{.Main}}; count: {{.Count}}", map[string]string{
		"Main":  "say {{.Count}} literally",
		"Count": "3",
	})
	assert.Equal(t, "main: say {{.Count}} literally; count: 3", out)
}

func TestFormat_UnknownPlaceholderKept(t *testing.T) {
	assert.Equal(t, "{{.Missing}}", Format("{{.Missing}}", map[string]string{"Other": "v"}))
}
