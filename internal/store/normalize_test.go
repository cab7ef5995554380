package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/generative-proxy/internal/types"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Funny Pirate":        "funny-pirate",
		"  --Noir__Detective": "noir-detective",
		"Élan Vital!":         "lan-vital",
		"ALL CAPS 42":         "all-caps-42",
		"!!!":                 "personality",
		"":                    "personality",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestUniqueID(t *testing.T) {
	existing := []types.Personality{{ID: "pirate"}, {ID: "pirate-7"}}
	seq := []int{7, 42}
	intn := func(n int) int {
		assert.Equal(t, 100000, n)
		v := seq[0]
		seq = seq[1:]
		return v
	}

	assert.Equal(t, "surfer", UniqueID("Surfer", existing, intn))
	assert.Equal(t, "pirate-42", UniqueID("Pirate", existing, intn))
	assert.Empty(t, seq)
}

func TestNormalizeEntries(t *testing.T) {
	entries := []map[string]any{
		{"name": "  Funny Pirate ", "prompt": " Arr. "},
		{"id": "Funny Pirate", "name": "Duplicate", "prompt": "dup"},
		{"id": "custom ID", "name": "Other", "prompt": "p"},
		{"name": "No prompt"},
		{"name": 42, "prompt": "wrong type"},
		nil,
	}

	got := NormalizeEntries(entries)

	assert.Equal(t, []types.Personality{
		{ID: "funny-pirate", Name: "Funny Pirate", Prompt: "Arr."},
		{ID: "custom-id", Name: "Other", Prompt: "p"},
	}, got)
}

func TestNormalize_EmptyYieldsDefaults(t *testing.T) {
	assert.Equal(t, DefaultPersonalities(), Normalize(nil))
	assert.Equal(t, DefaultPersonalities(), NormalizeEntries([]map[string]any{{"name": " ", "prompt": "x"}}))
}

func TestDefaultPersonalities(t *testing.T) {
	defaults := DefaultPersonalities()

	ids := make([]string, len(defaults))
	for i, p := range defaults {
		ids[i] = p.ID
		assert.NotEmpty(t, p.Prompt)
	}
	assert.Equal(t, []string{"funny-pirate", "concerned-parent", "noir-detective", "surfer-dude", "shakespearean-bard"}, ids)

	defaults[0].Name = "mutated"
	assert.Equal(t, "Funny Pirate", DefaultPersonalities()[0].Name)
}
