package enhancements

import (
	"sync"
	"time"
)

const (
	pollLimitWindow = 1 * time.Second

	// Expired entries are swept once the map reaches this size, so the
	// limiter stays bounded by the polls of a single window.
	pollLimiterSweepSize = 1024
)

type pollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *pollLimiter) Allow(userID, jobID string) bool {
	if l == nil {
		return true
	}
	key := userID + "|" + jobID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok {
		if now.Sub(last) < l.window {
			return false
		}
	}
	if len(l.lastHit) >= pollLimiterSweepSize {
		l.sweep(now)
	}
	l.lastHit[key] = now
	return true
}

// sweep drops entries old enough that they can no longer block a poll.
// Callers hold l.mu.
func (l *pollLimiter) sweep(now time.Time) {
	for key, last := range l.lastHit {
		if now.Sub(last) >= l.window {
			delete(l.lastHit, key)
		}
	}
}

func (l *pollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(pollLimitWindow.Seconds())
	}
	return int(l.window.Seconds())
}
