// Package ratelimit implements the sliding-window admission check applied
// to transfer initiations. State is per-process and volatile: restarting
// resets every window. The guard is advisory abuse mitigation, not a
// balance-integrity control.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter bounds how often each account may initiate transfers: at most
// max events inside the trailing window.
type Limiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewLimiter creates a limiter admitting max events per window per account.
func NewLimiter(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:  window,
		max:     max,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow prunes timestamps older than the window, then admits the call iff
// fewer than max remain, recording a new timestamp on admission.
func (l *Limiter) Allow(accountID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	events := l.prune(accountID, now)

	if len(events) >= l.max {
		return false
	}

	l.windows[accountID] = append(events, now)
	return true
}

// TimeUntilAllowed returns the wait until the oldest recorded event ages
// out of the window. Zero means a call would be admitted now.
func (l *Limiter) TimeUntilAllowed(accountID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	events := l.prune(accountID, now)

	if len(events) < l.max {
		return 0
	}

	wait := events[0].Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// prune drops events older than the window and returns what remains.
// Caller must hold the mutex.
func (l *Limiter) prune(accountID string, now time.Time) []time.Time {
	events := l.windows[accountID]
	cutoff := now.Add(-l.window)

	kept := events[:0]
	for _, t := range events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 {
		delete(l.windows, accountID)
		return nil
	}

	l.windows[accountID] = kept
	return kept
}
