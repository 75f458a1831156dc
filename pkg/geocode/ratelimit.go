package geocode

import (
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// DailyLimiter caps external resolver calls per UTC calendar day. The count
// resets whenever the current date differs from the stored one. Safe for
// concurrent use.
type DailyLimiter struct {
	mu    sync.Mutex
	limit int
	date  string
	count int
	now   func() time.Time
}

// NewDailyLimiter creates a limiter allowing limit calls per day. now is
// injectable for tests; nil uses the wall clock.
func NewDailyLimiter(limit int, now func() time.Time) *DailyLimiter {
	if now == nil {
		now = time.Now
	}
	return &DailyLimiter{
		limit: limit,
		now:   now,
	}
}

// Allow consumes one call from today's budget. Returns false once the ceiling
// is reached; the budget refills when the date rolls over.
func (l *DailyLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

// Remaining returns how many calls are left today.
func (l *DailyLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	remaining := l.limit - l.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *DailyLimiter) roll() {
	today := l.now().UTC().Format(dateLayout)
	if l.date != today {
		l.date = today
		l.count = 0
	}
}
