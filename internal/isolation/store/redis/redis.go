// Package redis persists isolation state as plain Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"isolationd/pkg/platform/sentinel"
)

const defaultKeyPrefix = "isolationd:"

// Backend stores values under a namespaced key with no expiry; retention is
// decided by housekeeping, not by TTL.
type Backend struct {
	client *redis.Client
	prefix string
}

type Option func(*Backend)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

func NewRedis(client *redis.Client, opts ...Option) *Backend {
	b := &Backend{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (b *Backend) Save(ctx context.Context, key string, data []byte) error {
	if err := b.client.Set(ctx, b.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Keys walks the keyspace with SCAN, so it is safe on a live server.
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, b.prefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(b.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return keys, nil
}
