package storage

import (
	"context"
	"sync"
)

// MemoryStore is a TokenStore that lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	token  string
	ok     bool
	writes int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the held token.
func (m *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.ok, nil
}

// Set replaces the held token.
func (m *MemoryStore) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.ok = token, true
	m.writes++
	return nil
}

// Clear drops the held token. Clearing an empty store is a no-op.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.ok = "", false
	m.writes++
	return nil
}

// Writes returns the number of Set and Clear calls seen so far.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
