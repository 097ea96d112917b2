package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// durationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the maximum duration in the given slice.
// An empty slice returns 0. The input slice is never mutated.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a uniformly distributed duration in [0, max).
// A zero or negative max returns 0.
func ComputeJitter(max time.Duration, rng rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the delay before the next retry attempt.
// The base delay grows as initialDuration * multiplier^(backoffCount-1),
// capped at maxDuration, with uniform jitter in [0, jitter) added on top.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	delay := float64(backoffParam.InitialDuration()) *
		math.Pow(backoffParam.Multiplier(), float64(backoffCount-1))

	if capped := float64(backoffParam.MaxDuration()); delay > capped {
		delay = capped
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
