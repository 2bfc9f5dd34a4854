// Package circuit provides a minimal circuit breaker for outbound dependencies.
package circuit

import (
	"sync"
	"time"
)

// Breaker sheds load when the guild authority is failing. After `threshold`
// consecutive failures the circuit opens and calls are rejected without a network
// attempt until `cooldown` elapses; the next call then probes half-open.
type Breaker struct {
	mu sync.RWMutex

	name      string
	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	open      bool
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: 5,
		cooldown:  time.Minute,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// Allow returns true if a call may proceed (closed, or half-open probe).
func (b *Breaker) Allow() bool {
	b.mu.RLock()
	if !b.open {
		b.mu.RUnlock()
		return true
	}
	expired := time.Now().After(b.openUntil)
	b.mu.RUnlock()

	if !expired {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// Re-check after acquiring the write lock.
	if b.open && time.Now().After(b.openUntil) {
		b.open = false
		b.failures = 0
	}
	return !b.open
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.open = true
		b.openUntil = time.Now().Add(b.cooldown)
	}
}

func (b *Breaker) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.open
}

// Reset manually closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}
