package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	return m.SetMany(ctx, Entry{Key: key, Value: value})
}

// SetMany stores all entries under one lock.
func (m *MemoryStore) SetMany(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[e.Key] = slices.Clone(e.Value)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
