package store

import "context"

// Store defines the port interface for a single named cache store: a
// key-value store of captured responses. This interface follows the
// port-adapter pattern, allowing different storage backends to be swapped
// without changing strategy logic.
//
// Concurrency: implementations must be safe for concurrent use. The only
// guarantee on a contested key is last-write-wins; no cross-key ordering
// is provided.
type Store interface {
	// Match retrieves an entry by key.
	// Returns the entry and true if found, or a zero entry and false if not.
	// This method is read-only and does not modify store state.
	Match(ctx context.Context, key string) (Entry, bool, error)

	// Put stores an entry under key. An existing entry is overwritten.
	// Writes are atomic per entry.
	Put(ctx context.Context, key string, entry Entry) error

	// Delete removes an entry by key. Returns true if an entry was removed.
	Delete(ctx context.Context, key string) (bool, error)

	// Keys returns the keys of all entries currently in the store.
	Keys(ctx context.Context) ([]string, error)

	// Size returns the number of entries in the store.
	Size(ctx context.Context) (int, error)
}

// Host defines the port interface for the collection of named cache stores
// owned by a worker installation. Store names embed the cache version, so
// a version bump naturally creates fresh stores without mutating old ones.
type Host interface {
	// Open returns the store with the given name, creating it if absent.
	Open(ctx context.Context, name string) (Store, error)

	// Delete removes the named store and all of its entries.
	// Returns true if a store was removed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names enumerates all existing store names.
	Names(ctx context.Context) ([]string, error)
}
