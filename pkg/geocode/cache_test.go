package geocode

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a settable clock for TTL and limiter tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCache(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("get returns stored value before ttl", func(t *testing.T) {
		clock := newFakeClock(base)
		cache := NewCache[string](time.Hour, clock.Now)

		cache.Set("k", "v")
		clock.Advance(time.Hour) // exactly at the ttl boundary, still fresh

		got, ok := cache.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", got)
	})

	t.Run("entry expires past ttl", func(t *testing.T) {
		clock := newFakeClock(base)
		cache := NewCache[string](time.Hour, clock.Now)

		cache.Set("k", "v")
		clock.Advance(time.Hour + time.Nanosecond)

		_, ok := cache.Get("k")
		assert.False(t, ok)
		assert.Equal(t, 0, cache.Len(), "stale entry is evicted on read")
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		cache := NewCache[int](time.Hour, newFakeClock(base).Now)
		_, ok := cache.Get("missing")
		assert.False(t, ok)
	})

	t.Run("set refreshes the ttl", func(t *testing.T) {
		clock := newFakeClock(base)
		cache := NewCache[string](time.Hour, clock.Now)

		cache.Set("k", "old")
		clock.Advance(45 * time.Minute)
		cache.Set("k", "new")
		clock.Advance(45 * time.Minute)

		got, ok := cache.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "new", got)
	})

	t.Run("len counts stale entries until read", func(t *testing.T) {
		clock := newFakeClock(base)
		cache := NewCache[string](time.Hour, clock.Now)

		cache.Set("a", "1")
		cache.Set("b", "2")
		clock.Advance(2 * time.Hour)

		assert.Equal(t, 2, cache.Len())
		cache.Get("a")
		assert.Equal(t, 1, cache.Len())
	})
}

func TestDailyLimiter(t *testing.T) {
	base := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	t.Run("allows exactly the daily limit", func(t *testing.T) {
		limiter := NewDailyLimiter(3, newFakeClock(base).Now)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow(), "call %d", i+1)
		}
		assert.False(t, limiter.Allow())
		assert.Equal(t, 0, limiter.Remaining())
	})

	t.Run("remaining tracks consumption", func(t *testing.T) {
		limiter := NewDailyLimiter(5, newFakeClock(base).Now)

		assert.Equal(t, 5, limiter.Remaining())
		limiter.Allow()
		limiter.Allow()
		assert.Equal(t, 3, limiter.Remaining())
	})

	t.Run("budget refills when the utc date rolls over", func(t *testing.T) {
		clock := newFakeClock(base)
		limiter := NewDailyLimiter(1, clock.Now)

		assert.True(t, limiter.Allow())
		assert.False(t, limiter.Allow())

		// 23:00 UTC plus two hours lands on the next calendar day.
		clock.Advance(2 * time.Hour)
		assert.Equal(t, 1, limiter.Remaining())
		assert.True(t, limiter.Allow())
	})

	t.Run("same day never refills", func(t *testing.T) {
		clock := newFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		limiter := NewDailyLimiter(1, clock.Now)

		assert.True(t, limiter.Allow())
		clock.Advance(23 * time.Hour)
		assert.False(t, limiter.Allow())
	})

	t.Run("zero limit denies everything", func(t *testing.T) {
		limiter := NewDailyLimiter(0, newFakeClock(base).Now)
		assert.False(t, limiter.Allow())
	})
}
