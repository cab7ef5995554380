package store

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the configuration keys.
const DefaultRedisPrefix = "generative:config:"

// RedisKV stores values as plain Redis strings.
type RedisKV struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisKV.
type RedisOption func(*RedisKV)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisKV) {
		s.prefix = prefix
	}
}

// NewRedisKV connects to the Redis server at url (redis://[:password@]host:port/db).
func NewRedisKV(ctx context.Context, url string, opts ...RedisOption) (*RedisKV, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := backend.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisKVFromClient(client, opts...), nil
}

// NewRedisKVFromClient wraps an existing client.
func NewRedisKVFromClient(client *backend.Client, opts ...RedisOption) *RedisKV {
	s := &RedisKV{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements KV.
func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, backend.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return v, nil
}

// Put implements KV.
func (s *RedisKV) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put %s to redis: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (s *RedisKV) Close() error {
	return s.client.Close()
}
