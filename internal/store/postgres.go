package store

import (
	"context"

	"github.com/jonathan/generative-proxy/internal/db"
)

// PostgresKV stores values in the generative_config table.
type PostgresKV struct {
	db *db.DB
}

// NewPostgresKV wraps a connected database. The schema must already exist.
func NewPostgresKV(database *db.DB) *PostgresKV {
	return &PostgresKV{db: database}
}

// Get implements KV.
func (s *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	v, found, err := s.db.GetValue(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return v, nil
}

// Put implements KV.
func (s *PostgresKV) Put(ctx context.Context, key, value string) error {
	return s.db.PutValue(ctx, key, value)
}

// Close implements KV.
func (s *PostgresKV) Close() error {
	s.db.Close()
	return nil
}
