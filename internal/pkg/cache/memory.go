package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// Get implements Store. Expired entries read as misses and are dropped lazily.
func (c *MemoryStore) Get(_ context.Context, key string) (Result, error) {
	c.mu.RLock()
	entry, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return Result{}, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.store[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return Result{}, nil
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return Hit(value), nil
}

// Set implements Store. A non-positive ttl keeps the entry until deleted.
func (c *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry
	return nil
}

// Delete implements Store.
func (c *MemoryStore) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.store, key)
	}
	return nil
}

// Close implements Store.
func (c *MemoryStore) Close() error {
	return nil
}
