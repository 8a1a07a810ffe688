package cache

import (
	"iter"
	"maps"
	"sync"
)

// Store maps string keys to arbitrary values.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Remove(key string)
	// All yields a snapshot of the entries taken when iteration starts.
	All() iter.Seq2[string, any]
	Len() int
}

// Memory is a Store backed by a Go map.
type Memory struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]any)}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

// Remove deletes key. Removing a missing key is a no-op.
func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// All returns an iterator over a snapshot of the store, so callers may
// modify the store while ranging over it.
func (m *Memory) All() iter.Seq2[string, any] {
	m.mu.RLock()
	snapshot := maps.Clone(m.items)
	m.mu.RUnlock()
	return maps.All(snapshot)
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
