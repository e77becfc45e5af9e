package security

import (
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding-window limiter keyed by an
// arbitrary identifier (session id, IP, form name). State is process
// local and resets on restart; it is not a distributed limiter.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewRateLimiter allows up to limit events per identifier within the
// trailing window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records an attempt for the identifier and reports whether it is
// within the limit. Attempts older than the window are discarded.
func (rl *RateLimiter) Allow(id string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	recent := rl.hits[id][:0]
	for _, t := range rl.hits[id] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.hits[id] = recent
		return false
	}

	rl.hits[id] = append(recent, now)
	return true
}

// Remaining reports how many attempts the identifier has left in the
// current window.
func (rl *RateLimiter) Remaining(id string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	count := 0
	for _, t := range rl.hits[id] {
		if t.After(cutoff) {
			count++
		}
	}
	if count >= rl.limit {
		return 0
	}
	return rl.limit - count
}

// Reset clears the identifier's window, e.g. after a successful login.
func (rl *RateLimiter) Reset(id string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.hits, id)
}
