package geocode

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value      T
	insertedAt time.Time
}

// Cache is an in-memory TTL cache. Entries older than the TTL are evicted
// lazily on read. Safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL. now is injectable for tests;
// nil uses the wall clock.
func NewCache[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached value for key. A stale entry is removed and reported
// as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if c.now().Sub(e.insertedAt) > c.ttl {
		c.mu.Lock()
		// Recheck under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, replacing any existing entry.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, insertedAt: c.now()}
	c.mu.Unlock()
}

// Len returns the number of entries, stale ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
