// Package ratelimit implements the per-(actor, operation) rate limiting of
// spec.md §5: a per-minute and a per-hour window, both enforced
// independently; exceeding either yields a retryable error.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/omnipkg/omni/internal/errs"
)

// Config holds the two window budgets (spec.md §5 defaults: 10/minute,
// 100/hour).
type Config struct {
	PerMinute int
	PerHour   int
}

// DefaultConfig matches spec.md §5's stated defaults.
func DefaultConfig() Config {
	return Config{PerMinute: 10, PerHour: 100}
}

type pair struct {
	minute *rate.Limiter
	hour   *rate.Limiter
	seenAt time.Time
}

// Limiter holds the small in-memory map of (actor, operation) -> token
// buckets named in spec.md §5. It is safe for concurrent use; every Allow
// call also drops entries idle for more than one hour.
type Limiter struct {
	mu     sync.Mutex
	cfg    Config
	counts map[string]*pair
	now    func() time.Time
}

// New builds a Limiter. now is injectable for deterministic tests; pass nil
// to use time.Now.
func New(cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{cfg: cfg, counts: make(map[string]*pair), now: now}
}

func key(actor, operation string) string {
	return fmt.Sprintf("%s:%s", actor, operation)
}

// Allow reports whether (actor, operation) may proceed right now, consuming
// one token from both windows if so. A denial is always a retryable error
// per spec.md §5 ("callers may back off and try again").
func (l *Limiter) Allow(actor, operation string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupLocked()

	k := key(actor, operation)
	p, ok := l.counts[k]
	if !ok {
		p = &pair{
			minute: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60.0), l.cfg.PerMinute),
			hour:   rate.NewLimiter(rate.Limit(float64(l.cfg.PerHour)/3600.0), l.cfg.PerHour),
		}
		l.counts[k] = p
	}
	p.seenAt = l.now()

	if !p.minute.AllowN(p.seenAt, 1) {
		return errs.New(errs.ResourceExhausted, "rate limit exceeded: per-minute budget").
			WithContext("actor", actor).WithContext("operation", operation)
	}
	if !p.hour.AllowN(p.seenAt, 1) {
		return errs.New(errs.ResourceExhausted, "rate limit exceeded: per-hour budget").
			WithContext("actor", actor).WithContext("operation", operation)
	}
	return nil
}

// cleanupLocked drops entries idle for more than an hour, per spec.md §5
// ("periodic cleanup of entries older than one hour"). Caller holds l.mu.
func (l *Limiter) cleanupLocked() {
	cutoff := l.now().Add(-time.Hour)
	for k, p := range l.counts {
		if p.seenAt.Before(cutoff) {
			delete(l.counts, k)
		}
	}
}
