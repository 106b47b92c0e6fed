package executor

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// breakerRegistry holds one circuit breaker per target command, so a run
// of consecutive apt failures doesn't short-circuit snap calls too. Closed
// / open / half-open per spec.md §4.3 and the Glossary's "Circuit breaker".
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerRegistry() *breakerRegistry {
	return &breakerRegistry{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (r *breakerRegistry) get(command string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[command]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        command,
		MaxRequests: 1, // a single trial call is admitted in half-open state
		Interval:    time.Minute,
		Timeout:     30 * time.Second, // recovery timeout before a half-open trial
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	r.breakers[command] = b
	return b
}
