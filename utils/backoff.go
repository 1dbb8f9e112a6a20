package utils

import (
	"sync"
	"time"
)

// Backoff gates repeated attempts against a degraded dependency with
// capped exponential delays. Callers check Ready before attempting and
// report the outcome with Success or Failure.
type Backoff struct {
	base time.Duration
	max  time.Duration

	mutex     sync.Mutex
	failures  uint
	notBefore time.Time
}

func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max}
}

// Ready reports whether a new attempt is allowed now.
func (b *Backoff) Ready() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return !time.Now().Before(b.notBefore)
}

// Success resets the gate.
func (b *Backoff) Success() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failures = 0
	b.notBefore = time.Time{}
}

// Failure records a failed attempt and extends the delay before the
// next one is allowed.
func (b *Backoff) Failure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	delay := b.delayLocked()
	b.failures++
	b.notBefore = time.Now().Add(delay)
}

func (b *Backoff) delayLocked() time.Duration {
	delay := b.base
	for i := uint(0); i < b.failures; i++ {
		delay *= 2
		if delay >= b.max {
			return b.max
		}
	}
	if delay > b.max {
		delay = b.max
	}
	return delay
}
