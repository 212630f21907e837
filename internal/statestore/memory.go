package statestore

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	userID    uint
	expiresAt time.Time
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-memory storage.
// Uses lazy expiration (checks expiry on Consume).
// Suitable for single-instance deployments.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

// NewMemoryStore creates a new memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
	}
}

func (m *MemoryStore) Issue(ctx context.Context, state string, userID uint, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[state] = memoryItem{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Consume(ctx context.Context, state string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[state]
	if !exists {
		return 0, ErrNotFound
	}

	// Single use: burn it whether or not it is still valid
	delete(m.items, state)

	// Lazy expiration check
	if time.Now().After(item.expiresAt) {
		return 0, ErrNotFound
	}

	return item.userID, nil
}
