// Package memory is an in-process backend for development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"isolationd/pkg/platform/sentinel"
)

type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func New() *Backend {
	return &Backend{values: make(map[string][]byte)}
}

func (b *Backend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, sentinel.ErrNotFound)
	}
	return bytes.Clone(value), nil
}

func (b *Backend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = bytes.Clone(data)
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}

// Keys lists stored keys with the given prefix.
func (b *Backend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []string
	for k := range b.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
