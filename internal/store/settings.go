package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/generative-proxy/internal/logging"
	"github.com/jonathan/generative-proxy/internal/types"
)

// Settings reads and writes the main prompt and personalities on top of a KV. Reads always
// produce usable values: missing keys are seeded with the defaults.
type Settings struct {
	kv     KV
	logger *slog.Logger
	intn   func(int) int

	// serializes read-modify-write admin operations within this process
	writeMu sync.Mutex
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SettingsOption {
	return func(s *Settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRandom replaces the source of id suffixes.
func WithRandom(intn func(int) int) SettingsOption {
	return func(s *Settings) {
		s.intn = intn
	}
}

// NewSettings creates Settings over kv.
func NewSettings(kv KV, opts ...SettingsOption) *Settings {
	s := &Settings{
		kv:     kv,
		logger: logging.NewNop(),
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MainPrompt returns the stored main prompt, trimmed. When none is stored the default is
// written back and returned. On a backend error the default is returned with the error.
func (s *Settings) MainPrompt(ctx context.Context) (string, error) {
	stored, err := s.kv.Get(ctx, KeyMainPrompt)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return DefaultMainPrompt(), err
	}
	if trimmed := strings.TrimSpace(stored); trimmed != "" {
		return trimmed, nil
	}

	def := DefaultMainPrompt()
	if err := s.kv.Put(ctx, KeyMainPrompt, def); err != nil {
		return def, err
	}
	return def, nil
}

// Personalities returns the normalized personality list. A stored value may be a JSON array
// or an object with a "personalities" array. Missing or wrongly shaped values are replaced
// with the defaults; unparseable values yield the defaults without overwriting the store.
func (s *Settings) Personalities(ctx context.Context) ([]types.Personality, error) {
	stored, err := s.kv.Get(ctx, KeyPersonalities)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return DefaultPersonalities(), err
	}

	if err == nil {
		entries, ok, perr := decodePersonalities(stored)
		if perr != nil {
			s.logger.Warn("stored personalities are not valid JSON, using defaults", "error", perr)
			return DefaultPersonalities(), nil
		}
		if ok {
			return NormalizeEntries(entries), nil
		}
	}

	defaults := DefaultPersonalities()
	if err := s.save(ctx, defaults); err != nil {
		return defaults, err
	}
	return defaults, nil
}

func decodePersonalities(raw string) ([]map[string]any, bool, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, err
	}

	var list []any
	switch v := value.(type) {
	case []any:
		list = v
	case map[string]any:
		inner, ok := v["personalities"].([]any)
		if !ok {
			return nil, false, nil
		}
		list = inner
	default:
		return nil, false, nil
	}

	entries := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			entries = append(entries, m)
		}
	}
	return entries, true, nil
}

// Snapshot reads the main prompt and personalities concurrently.
func (s *Settings) Snapshot(ctx context.Context) (types.ConfigSnapshot, error) {
	var snap types.ConfigSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prompt, err := s.MainPrompt(gctx)
		snap.MainPrompt = prompt
		return err
	})
	g.Go(func() error {
		list, err := s.Personalities(gctx)
		snap.Personalities = list
		return err
	})
	err := g.Wait()
	return snap, err
}

// SetMainPrompt stores prompt, trimmed.
func (s *Settings) SetMainPrompt(ctx context.Context, prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", &ValidationError{Message: "mainPrompt is required"}
	}
	if err := s.kv.Put(ctx, KeyMainPrompt, trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ReplacePersonalities normalizes entries and stores the result.
func (s *Settings) ReplacePersonalities(ctx context.Context, entries []map[string]any) ([]types.Personality, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list := NormalizeEntries(entries)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpsertPersonality adds a personality or replaces the one with the same id. The id is the
// slug of id when given, otherwise a unique slug derived from name. The written entry moves
// to the end of the list. It returns the stored list and the id used.
func (s *Settings) UpsertPersonality(ctx context.Context, id, name, prompt string) ([]types.Personality, string, error) {
	name = strings.TrimSpace(name)
	prompt = strings.TrimSpace(prompt)
	if name == "" || prompt == "" {
		return nil, "", &ValidationError{Message: "name and prompt cannot be empty"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.Personalities(ctx)
	if err != nil {
		return nil, "", err
	}

	if strings.TrimSpace(id) != "" {
		id = Slugify(id)
	} else {
		id = UniqueID(name, current, s.intn)
	}

	next := make([]types.Personality, 0, len(current)+1)
	for _, p := range current {
		if p.ID != id {
			next = append(next, p)
		}
	}
	next = append(next, types.Personality{ID: id, Name: name, Prompt: prompt})

	list := Normalize(next)
	if err := s.save(ctx, list); err != nil {
		return nil, "", err
	}
	return list, id, nil
}

// DeletePersonality removes the personality with id. Unknown ids leave the list unchanged.
// Removing the last personality fails with ErrLastPersonality.
func (s *Settings) DeletePersonality(ctx context.Context, id string) ([]types.Personality, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.Personalities(ctx)
	if err != nil {
		return nil, err
	}

	next := make([]types.Personality, 0, len(current))
	for _, p := range current {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == 0 {
		return nil, ErrLastPersonality
	}

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Settings) save(ctx context.Context, list []types.Personality) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode personalities: %w", err)
	}
	return s.kv.Put(ctx, KeyPersonalities, string(data))
}

// Close closes the underlying KV.
func (s *Settings) Close() error {
	return s.kv.Close()
}
