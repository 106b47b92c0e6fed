package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// backoffCursor adapts cenkalti/backoff's ExponentialBackOff into the
// capped-attempts retry policy of spec.md §4.3: "exponential backoff with
// jitter, capped max delay, capped attempts."
type backoffCursor struct {
	b       backoff.BackOff
	max     int
	attempt int
}

func newBackoff(ctx context.Context, maxAttempts int) *backoffCursor {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 30 * time.Second
	eb.MaxElapsedTime = 0 // attempts are capped by maxAttempts, not elapsed time
	return &backoffCursor{b: backoff.WithContext(eb, ctx), max: maxAttempts}
}

// next returns the next backoff duration, or ok=false once maxAttempts is
// exhausted.
func (c *backoffCursor) next() (time.Duration, bool) {
	if c.attempt >= c.max {
		return 0, false
	}
	c.attempt++
	d := c.b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}
