// Package cache implements the second-level entity cache used by repositories.
//
// The cache is organized in regions, one per entity type. Regions store
// opaque byte values so that the same contract can be served by an in-process
// map, redis or badger. Repositories never talk to a region directly: they go
// through a scope-owned Batch, which buffers mutations until the scope's
// transaction commits.
package cache

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed provider.
var ErrClosed = errors.New("cache is closed")

// ============================================================================
// Contracts
// ============================================================================

// Region is an isolated key space holding the cached records of one entity type.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Region interface {
	// Name returns the region name.
	Name() string

	// Get returns the value stored under key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key of the region.
	Clear(ctx context.Context) error
}

// Provider hands out regions and owns their backing store.
type Provider interface {
	// Region returns the region with the given name, creating it on first use.
	Region(name string) Region

	// Enabled reports whether caching is active. A disabled provider makes
	// repositories bypass the cache entirely.
	Enabled() bool

	// Close releases the backing store.
	Close() error
}

// Metrics receives cache events. A nil Metrics disables collection.
type Metrics interface {
	ObserveHit(region string)
	ObserveMiss(region string)
	ObserveEviction(region string, n int)
	ObserveFlush(entries int)
}
