package auth

import (
	"sync"
	"time"
)

// LoginLimiter tracks failed login attempts per caller identity in an
// explicit store owned by the service instance. An identity with
// maxFailures failures inside the rolling window is locked out until the
// oldest failure ages out; stale entries are evicted on check.
type LoginLimiter struct {
	mu          sync.Mutex
	failures    map[string][]time.Time
	maxFailures int
	window      time.Duration
	now         func() time.Time
}

func NewLoginLimiter(maxFailures int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		failures:    make(map[string][]time.Time),
		maxFailures: maxFailures,
		window:      window,
		now:         time.Now,
	}
}

// Check reports whether id may attempt a login. When locked out, the
// second return value is the time remaining until the lock expires.
func (l *LoginLimiter) Check(id string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(id)
	if len(recent) < l.maxFailures {
		return true, 0
	}
	return false, recent[0].Add(l.window).Sub(l.now())
}

// RecordFailure registers a failed attempt for id.
func (l *LoginLimiter) RecordFailure(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[id] = append(l.prune(id), l.now())
}

// Reset clears the failure history for id, typically after a successful
// login.
func (l *LoginLimiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failures, id)
}

// prune drops failures outside the window. Caller must hold the lock.
func (l *LoginLimiter) prune(id string) []time.Time {
	cutoff := l.now().Add(-l.window)
	kept := l.failures[id][:0]
	for _, t := range l.failures[id] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, id)
		return nil
	}
	l.failures[id] = kept
	return kept
}
