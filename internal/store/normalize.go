package store

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/generative-proxy/internal/types"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value, replaces runs of characters outside [a-z0-9] with '-' and
// trims dashes. An empty result becomes "personality".
func Slugify(value string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(value), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "personality"
	}
	return s
}

// UniqueID slugifies name and, on collision with an existing id, appends a random numeric
// suffix below 100000 until the id is free.
func UniqueID(name string, existing []types.Personality, intn func(int) int) string {
	ids := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		ids[p.ID] = struct{}{}
	}

	base := Slugify(name)
	if _, taken := ids[base]; !taken {
		return base
	}
	for {
		candidate := base + "-" + strconv.Itoa(intn(100000))
		if _, taken := ids[candidate]; !taken {
			return candidate
		}
	}
}

// NormalizeEntries turns loosely typed entries into personalities: name and prompt are
// trimmed, entries missing either are dropped, ids are slugified from id or name and
// deduplicated by first occurrence. An empty result yields the defaults.
func NormalizeEntries(entries []map[string]any) []types.Personality {
	list := make([]types.Personality, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		name, _ := entry["name"].(string)
		prompt, _ := entry["prompt"].(string)
		id, _ := entry["id"].(string)
		list = append(list, types.Personality{ID: id, Name: name, Prompt: prompt})
	}
	return Normalize(list)
}

// Normalize applies the same rules as NormalizeEntries to typed personalities.
func Normalize(list []types.Personality) []types.Personality {
	seen := make(map[string]struct{}, len(list))
	out := make([]types.Personality, 0, len(list))
	for _, p := range list {
		name := strings.TrimSpace(p.Name)
		prompt := strings.TrimSpace(p.Prompt)
		if name == "" || prompt == "" {
			continue
		}

		idSource := name
		if strings.TrimSpace(p.ID) != "" {
			idSource = p.ID
		}
		id := Slugify(idSource)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, types.Personality{ID: id, Name: name, Prompt: prompt})
	}

	if len(out) == 0 {
		return DefaultPersonalities()
	}
	return out
}
