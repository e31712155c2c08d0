package push

import (
	"math/rand"
	"sync"
	"time"
)

// Restart backoff defaults. Transport restarts triggered by
// RenewRegistration retry on this schedule until one succeeds.
const (
	// DefaultRestartBackoffInitial is the initial retry delay.
	DefaultRestartBackoffInitial = 1 * time.Second

	// DefaultRestartBackoffMax is the maximum retry delay.
	DefaultRestartBackoffMax = 5 * time.Minute

	// restartBackoffMultiplier is the factor by which the delay grows.
	restartBackoffMultiplier = 2.0

	// restartBackoffJitter is the maximum jitter as a fraction of the delay.
	restartBackoffJitter = 0.25
)

// backoff calculates exponential retry delays with jitter.
type backoff struct {
	mu sync.Mutex

	// Current delay (before jitter)
	current time.Duration

	// Configuration
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64

	// Attempt counter
	attempts int

	// Random source for jitter
	rng *rand.Rand
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = DefaultRestartBackoffInitial
	}
	if max <= 0 {
		max = DefaultRestartBackoffMax
	}

	return &backoff{
		current:    initial,
		initial:    initial,
		max:        max,
		multiplier: restartBackoffMultiplier,
		jitter:     restartBackoffJitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// next returns the next retry delay (with jitter) and advances the backoff.
func (b *backoff) next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.addJitter(b.current)

	b.attempts++
	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// reset restores the initial delay. Called after a successful restart and
// when a fresh token arrives.
func (b *backoff) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// attemptCount returns the number of retries since the last reset.
func (b *backoff) attemptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// addJitter adds random jitter to a delay.
func (b *backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}
