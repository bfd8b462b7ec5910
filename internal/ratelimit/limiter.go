// Package ratelimit enforces a per-identity request budget over a time
// window. Check-and-record is a single atomic step so concurrent requests
// cannot both sneak under the limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // positive when rejected
}

// Limiter admits or rejects a request for an identity (API key or client IP).
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}

// MemoryLimiter is a sliding-window limiter held in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time

	limit  int
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow checks the window and records the request in one critical section.
// Rejections are not recorded, so a throttled client does not extend its own
// penalty by retrying.
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.requests[identity][:0]
	for _, stamp := range l.requests[identity] {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	l.requests[identity] = kept

	if len(kept) >= l.limit {
		// The oldest in-window stamp is the next one to expire.
		retryAfter := kept[0].Sub(cutoff)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	l.requests[identity] = append(kept, now)
	return Decision{Allowed: true}, nil
}

// Prune drops identities with no in-window stamps. Callers run it on a
// ticker so idle identities do not accumulate forever.
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for identity, stamps := range l.requests {
		kept := stamps[:0]
		for _, stamp := range stamps {
			if stamp.After(cutoff) {
				kept = append(kept, stamp)
			}
		}
		if len(kept) == 0 {
			delete(l.requests, identity)
		} else {
			l.requests[identity] = kept
		}
	}
}
