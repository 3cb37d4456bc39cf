package eventstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps the activity log in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore returns an empty log.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Append stores e, assigning a random ID when it has none.
func (m *MemoryStore) Append(_ context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	return nil
}

// Recent returns up to limit events, newest first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

// ByEntity returns the events of one entity in append order.
func (m *MemoryStore) ByEntity(_ context.Context, kind string, id int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, e := range m.events {
		if e.Kind == kind && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
