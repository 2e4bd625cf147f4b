package storage

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps values in process memory. Entries never expire on their own;
// the voice cache tracks freshness itself.
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the value of key.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := m.items.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

// Set stores value under key.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.items.Set(key, value, gocache.NoExpiration)
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.items.Delete(key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
