// Package store persists the main prompt and the personality list behind a small key-value
// interface with memory, Redis and PostgreSQL backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/generative-proxy/internal/config"
	"github.com/jonathan/generative-proxy/internal/db"
)

// Keys used in the key-value store.
const (
	KeyMainPrompt    = "main_prompt"
	KeyPersonalities = "personalities"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// ErrLastPersonality rejects deleting the only remaining personality.
var ErrLastPersonality = errors.New("At least one personality must remain")

// ValidationError is an admin write rejected before it reached the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// KV is the raw key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Close() error
}

// Open creates the KV backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		return NewMemoryKV(), nil
	case config.StoreRedis:
		return NewRedisKV(ctx, cfg.RedisURL)
	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return NewPostgresKV(database), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
