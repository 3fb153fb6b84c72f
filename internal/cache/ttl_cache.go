package cache

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// now is a small indirection to allow test stubbing if needed.
var now = time.Now

const fallbackDefaultTTL = 5 * time.Minute

// Config controls construction of a TTLCache.
type Config struct {
	// DefaultTTL applies when Set or GetOrSet is called with ttl <= 0.
	DefaultTTL time.Duration

	// SweepInterval is how often the background sweep deletes expired
	// entries. <= 0 disables the sweep; lazy expiration on Get still works,
	// the sweep only reclaims memory for keys that are never read again.
	SweepInterval time.Duration
}

// TTLCache is a map-backed cache with per-entry expiration and single-flight
// population. Expired entries are dropped on read; an optional background
// sweep reclaims entries nothing reads anymore.
//
// The cache owns its sweep goroutine. Call Close to stop it.
type TTLCache[V any] struct {
	mu         sync.RWMutex
	items      map[string]entry[V]
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64

	// flights coalesces concurrent GetOrSet calls for the same key into a
	// single producer invocation.
	flights singleflight.Group

	stop      chan struct{}
	done      sync.WaitGroup
	closeOnce sync.Once
}

// New constructs a TTLCache and starts the background sweep if enabled.
func New[V any](cfg Config) *TTLCache[V] {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = fallbackDefaultTTL
	}
	c := &TTLCache[V]{
		items:      make(map[string]entry[V]),
		defaultTTL: cfg.DefaultTTL,
		stop:       make(chan struct{}),
	}
	if cfg.SweepInterval > 0 {
		c.done.Add(1)
		go c.sweepLoop(cfg.SweepInterval)
	}
	return c
}

// Close stops the background sweep. Safe to call multiple times; the cache
// itself remains usable afterwards (lazy expiration keeps working).
func (c *TTLCache[V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.done.Wait()
	})
}

// Get implements Store.Get. An entry observed stale is deleted on the spot so
// the map does not hold dead values until the next sweep.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check: the key may have been overwritten between locks.
		if cur, ok := c.items[key]; ok && now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set implements Store.Set. It unconditionally overwrites any existing entry
// for key, timestamped now. A non-positive ttl falls back to the default.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete implements Store.Delete. Idempotent.
func (c *TTLCache[V]) Delete(key string) bool {
	if key == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	return true
}

// Clear implements Store.Clear.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.mu.Unlock()
}

// Stats implements Store.Stats. Expired-but-unswept entries are filtered out,
// so Size is an exact live count.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nowTs := now()
	keys := make([]string, 0, len(c.items))
	for k, e := range c.items {
		if !nowTs.After(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return Stats{
		Size:   len(keys),
		Keys:   keys,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// GetOrSet implements Store.GetOrSet.
//
// Concurrent callers for the same key join a single flight and all receive
// the one produced value; callers that joined a flight report
// fromCache = false since they were not served from an existing entry.
func (c *TTLCache[V]) GetOrSet(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (V, error)) (V, bool, error) {
	var zero V
	if key == "" {
		return zero, false, ErrEmptyKey
	}

	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.flights.Do(key, func() (any, error) {
		// A flight that completed while this caller was between the lookup
		// above and here may already have populated the key.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		produced, err := producer(ctx)
		if err != nil {
			// Propagate unchanged; nothing is written on failure.
			return nil, err
		}
		if err := c.Set(key, produced, ttl); err != nil {
			return nil, err
		}
		return produced, nil
	})
	if err != nil {
		return zero, false, err
	}
	return v.(V), false, nil
}

// PurgeExpired implements Store.PurgeExpired.
func (c *TTLCache[V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return
	}
	nowTs := now()
	for k, e := range c.items {
		if nowTs.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

// sweepLoop periodically reclaims expired entries. Correctness never depends
// on it: Get enforces staleness lazily either way.
func (c *TTLCache[V]) sweepLoop(interval time.Duration) {
	defer c.done.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep runs one purge pass. A panic here must never take down the host
// process; a non-sweeping cache degrades gracefully to lazy eviction only.
func (c *TTLCache[V]) sweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cache: sweep recovered from panic: %v", r)
		}
	}()
	c.PurgeExpired()
}

// Ensure TTLCache implements Store at compile time.
var _ Store[any] = (*TTLCache[any])(nil)
