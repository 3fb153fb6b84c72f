package cache

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyKey is returned when an operation is given an empty cache key.
// Keys are rejected before any lookup or write happens.
var ErrEmptyKey = errors.New("cache: empty key")

// Stats is a point-in-time snapshot of the cache for diagnostic endpoints.
// Size and Keys cover only live (non-expired) entries, even when a stale
// entry has not been swept yet.
type Stats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   uint64   `json:"hits"`
	Misses uint64   `json:"misses"`
}

// Store defines a key-value cache API with per-entry TTL and a deduplicated
// fetch-or-compute operation. Implementations must be safe for concurrent use.
type Store[V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key string) (V, bool)

	// Set stores the value. If ttl <= 0, the configured default TTL applies.
	Set(key string, value V, ttl time.Duration) error

	// Delete removes a key if present and reports whether an entry was removed.
	Delete(key string) bool

	// Clear removes all entries.
	Clear()

	// Stats returns a snapshot of live entries plus hit/miss counters.
	Stats() Stats

	// GetOrSet returns the cached value for key if a live entry exists.
	// Otherwise it invokes producer, stores the result with the given TTL,
	// and returns it. fromCache reports whether the value was served from an
	// existing entry. Concurrent calls for the same key share one producer
	// invocation; a producer failure propagates unchanged and writes nothing.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (V, error)) (value V, fromCache bool, err error)

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}
