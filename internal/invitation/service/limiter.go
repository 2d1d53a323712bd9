package service

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/clock"
)

const (
	rateLimitWindow = time.Hour
	rateLimitMax    = 10
)

// Limiter enforces a per-inviter sliding window on invitation issuance.
// Quota is consumed through Record, so failed issue attempts never
// count against the window.
type Limiter struct {
	mu     sync.Mutex
	clock  clock.Clock
	window time.Duration
	limit  int
	issued map[snowflake.ID][]time.Time
}

func NewLimiter(clk clock.Clock) *Limiter {
	return &Limiter{
		clock:  clk,
		window: rateLimitWindow,
		limit:  rateLimitMax,
		issued: make(map[snowflake.ID][]time.Time),
	}
}

// Allow reports whether the inviter still has quota in the current window.
func (l *Limiter) Allow(inviterID snowflake.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.prune(inviterID)) < l.limit
}

// Record consumes one unit of quota for the inviter.
func (l *Limiter) Record(inviterID snowflake.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.issued[inviterID] = append(l.prune(inviterID), l.clock.Now())
}

// prune drops timestamps that fell out of the window. Callers must
// hold the mutex.
func (l *Limiter) prune(inviterID snowflake.ID) []time.Time {
	cutoff := l.clock.Now().Add(-l.window)
	kept := l.issued[inviterID][:0]
	for _, ts := range l.issued[inviterID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.issued, inviterID)
		return nil
	}
	l.issued[inviterID] = kept
	return kept
}
