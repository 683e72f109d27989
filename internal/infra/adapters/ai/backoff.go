package ai

import (
	"math/rand"
	"time"
)

// Backoff returns the exponential delay for a retry attempt (1-based):
// base * 2^(attempt-1). Pure so retry timing is testable without clocks.
func Backoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

// Jitter returns a random offset in [-max/2, +max/2].
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max))) - max/2
}
