package worker

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// ExponentialBackoff returns the pause after the given number of consecutive
// failures, starting at 2s and doubling up to a 5m cap.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	// attempt=0 => 2s
	// attempt=1 => 4s
	// attempt=2 => 8s
	delay := time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))

	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	// small jitter (0–250ms) so replicas don't hit the db in lockstep
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
