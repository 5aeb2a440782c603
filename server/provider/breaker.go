package provider

import (
	"sync"
	"time"
)

// CircuitBreaker tracks per-provider cooldown windows after observed rate
// limits. One value is shared across every chain in the process, because
// the limit it mirrors is a real external one, not per-match state. The
// clock is injectable for tests.
type CircuitBreaker struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	until    map[string]time.Time
}

func NewCircuitBreaker(cooldown time.Duration, now func() time.Time) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{
		cooldown: cooldown,
		now:      now,
		until:    make(map[string]time.Time),
	}
}

// Trip opens (or extends) the cooldown window for one provider.
func (b *CircuitBreaker) Trip(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.until[name] = b.now().Add(b.cooldown)
}

// Resting reports whether a provider should be skipped right now.
func (b *CircuitBreaker) Resting(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	deadline, ok := b.until[name]
	if !ok {
		return false
	}
	if b.now().Before(deadline) {
		return true
	}
	delete(b.until, name)
	return false
}
