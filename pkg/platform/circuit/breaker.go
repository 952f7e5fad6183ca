// Package circuit provides a minimal circuit breaker for upstream calls
// that must not be retried.
package circuit

import (
	"sync"
	"time"
)

// Breaker trips after a run of consecutive failures. While open it
// rejects calls until a cooldown elapses, then lets probe calls through;
// a successful probe closes it, a failed one restarts the cooldown.
type Breaker struct {
	mu               sync.Mutex
	open             bool
	openedAt         time.Time
	failureCount     int
	failureThreshold int
	cooldown         time.Duration

	now func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures trip the
// breaker. Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before allowing a
// probe call. Default is 30 seconds.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// New creates a closed breaker.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		failureThreshold: 5,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	return b.now().Sub(b.openedAt) >= b.cooldown
}

// RecordSuccess notes a successful call, closing the breaker if it was
// open. It returns true when the breaker transitioned to closed.
func (b *Breaker) RecordSuccess() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	if b.open {
		b.open = false
		return true
	}
	return false
}

// RecordFailure notes a failed call. It returns true when this failure
// tripped the breaker open.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		// failed probe, restart the cooldown
		b.openedAt = b.now()
		return false
	}

	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.open = true
		b.openedAt = b.now()
		b.failureCount = 0
		return true
	}
	return false
}

// IsOpen reports whether the breaker is currently open.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
