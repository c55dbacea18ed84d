package services

import (
	"sync"
	"time"
)

// FixedWindowLimiter counts accepted attempts per key inside a fixed window.
// State is process-local and best-effort: a restart resets it, and multiple
// instances each keep their own counters. It is an abuse throttle, not a
// correctness mechanism; the draft-id uniqueness constraint is what
// actually prevents duplicates.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*windowBucket
}

type windowBucket struct {
	count     int
	lastReset time.Time
}

func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		max:     max,
		window:  window,
		now:     func() time.Time { return time.Now().UTC() },
		buckets: map[string]*windowBucket{},
	}
}

// Allow records an attempt for key and reports whether it is admitted.
// The first attempt opens a window; once the window elapses the next
// attempt opens a fresh one.
func (l *FixedWindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b := l.buckets[key]
	if b == nil || now.Sub(b.lastReset) > l.window {
		l.buckets[key] = &windowBucket{count: 1, lastReset: now}
		return true
	}
	if b.count >= l.max {
		return false
	}
	b.count++
	return true
}
