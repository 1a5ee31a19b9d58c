package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local model.CooldownStore.
type MemoryStore struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time)}
}

func (m *MemoryStore) LastAlert(_ context.Context, instID string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.last[instID]
	return t, ok, nil
}

func (m *MemoryStore) SaveAlert(_ context.Context, instID string, t time.Time) error {
	m.mu.Lock()
	m.last[instID] = t
	m.mu.Unlock()
	return nil
}

// Len returns the number of tracked instruments.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.last)
}

func (m *MemoryStore) Close() error { return nil }
