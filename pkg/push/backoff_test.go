package push

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("GrowsToMax", func(t *testing.T) {
		b := newBackoff(1*time.Second, 8*time.Second)

		// Base sequence without jitter: 1s, 2s, 4s, 8s, 8s...
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			8 * time.Second, // stays at max
		}

		for i, base := range expected {
			delay := b.next()
			limit := base + time.Duration(float64(base)*restartBackoffJitter) + time.Millisecond
			if delay < base || delay > limit {
				t.Errorf("attempt %d: delay = %v, want in [%v, %v]", i, delay, base, limit)
			}
		}
	})

	t.Run("JitterVaries", func(t *testing.T) {
		b := newBackoff(1*time.Second, time.Minute)

		samples := make([]time.Duration, 10)
		for i := range samples {
			samples[i] = b.next()
			b.reset()
		}

		allSame := true
		for i := 1; i < len(samples); i++ {
			if samples[i] != samples[0] {
				allSame = false
				break
			}
		}
		if allSame {
			t.Error("all jittered samples are identical - jitter may not be working")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := newBackoff(1*time.Second, time.Minute)

		for i := 0; i < 5; i++ {
			b.next()
		}
		if b.attemptCount() != 5 {
			t.Errorf("attemptCount() = %d, want 5", b.attemptCount())
		}

		b.reset()

		if b.attemptCount() != 0 {
			t.Errorf("attemptCount() = %d after reset, want 0", b.attemptCount())
		}
		limit := time.Second + time.Duration(float64(time.Second)*restartBackoffJitter) + time.Millisecond
		if delay := b.next(); delay < time.Second || delay > limit {
			t.Errorf("next() = %v after reset, want in [1s, %v]", delay, limit)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		b := newBackoff(0, 0)

		limit := DefaultRestartBackoffInitial +
			time.Duration(float64(DefaultRestartBackoffInitial)*restartBackoffJitter) + time.Millisecond
		if delay := b.next(); delay < DefaultRestartBackoffInitial || delay > limit {
			t.Errorf("next() = %v, want in [%v, %v]", delay, DefaultRestartBackoffInitial, limit)
		}
	})
}
