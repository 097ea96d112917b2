package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
//
// Entries live only for the duration of the process; the MemoryHost is the
// backend of choice for tests and for hosts that do not need the cache to
// survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	name    string
	entries map[string]Entry
}

func newMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:    name,
		entries: make(map[string]Entry),
	}
}

// Match retrieves an entry by key.
// This method is thread-safe for concurrent reads.
func (s *MemoryStore) Match(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	return entry, exists, nil
}

// Put stores an entry under key.
// This method is thread-safe for concurrent writes.
// If the key already exists, the entry is overwritten (last write wins).
func (s *MemoryStore) Put(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry
	return nil
}

// Delete removes an entry by key.
func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.entries[key]
	delete(s.entries, key)
	return exists, nil
}

// Keys returns the keys of all entries currently in the store.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

// Size returns the number of entries in the store.
func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}

// MemoryHost is an in-memory implementation of the Host interface: a
// registry of named MemoryStores.
type MemoryHost struct {
	mu     sync.RWMutex
	stores map[string]*MemoryStore
}

// NewMemoryHost creates an empty in-memory store registry.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		stores: make(map[string]*MemoryStore),
	}
}

// Open returns the store with the given name, creating it if absent.
func (h *MemoryHost) Open(_ context.Context, name string) (Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.stores[name]; ok {
		return existing, nil
	}
	created := newMemoryStore(name)
	h.stores[name] = created
	return created, nil
}

// Delete removes the named store and all of its entries.
func (h *MemoryHost) Delete(_ context.Context, name string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, exists := h.stores[name]
	delete(h.stores, name)
	return exists, nil
}

// Names enumerates all existing store names.
func (h *MemoryHost) Names(_ context.Context) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	return names, nil
}
