package lifecycle

import (
	"math/rand"
	"time"
)

// Backoff computes the delay before a restart, doubling per attempt.
type Backoff struct {
	initial time.Duration
	max     time.Duration
}

// NewBackoff creates a new backoff with the given initial and max durations.
func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{initial: initial, max: max}
}

// Delay returns the jittered delay for the given zero-based attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	if b == nil || b.initial <= 0 {
		return 0
	}
	d := b.initial
	for i := 0; i < attempt && d < b.max; i++ {
		d *= 2
	}
	if d > b.max {
		d = b.max
	}

	// Add jitter: ±20%
	jitter := float64(d) * 0.2 * (rand.Float64()*2 - 1)
	return time.Duration(float64(d) + jitter)
}
