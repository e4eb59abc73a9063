// Package backoff computes retry delays for the disk-caching fetch engine.
// The engine hands over the attempt number and its wait bounds; strategies
// decide how aggressively to spread retries inside those bounds.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy is a backoff calculation algorithm.
type Strategy interface {
	// Delay returns the wait before the given retry attempt, bounded by
	// [min, max]. Attempt counting starts at 0 for the first retry.
	Delay(attempt int, min, max time.Duration) time.Duration
}

// ExponentialJitter doubles the delay per attempt and adds uniform jitter
// scaled by Jitter (clamped to [0, 1]). This is the default strategy.
type ExponentialJitter struct {
	Multiplier float64
	Jitter     float64
}

// Delay implements Strategy.
func (s ExponentialJitter) Delay(attempt int, min, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent to keep the float math away from overflow.
	if attempt > 30 {
		attempt = 30
	}
	multiplier := s.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delay := time.Duration(float64(min) * pow(multiplier, attempt))
	if delay < 0 || delay > max {
		delay = max
	}

	jitter := clamp01(s.Jitter)
	if jitter > 0 {
		extra := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+extra > max {
			delay = max
		} else {
			delay += extra
		}
	}
	return delay
}

// DecorrelatedJitter spreads delays across the whole window following the
// AWS decorrelated-jitter scheme: random between min and min(max, min*3^n).
// It trades determinism for smoother tail latencies under contention.
type DecorrelatedJitter struct{}

// Delay implements Strategy.
func (DecorrelatedJitter) Delay(attempt int, min, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(min)
	upper := base * pow(3.0, attempt)
	maxFloat := float64(max)
	if upper > maxFloat || upper < 0 {
		upper = maxFloat
	}
	if upper < base {
		upper = base
	}

	delay := time.Duration(base + rand.Float64()*(upper-base))
	if delay < 0 || delay > max {
		delay = max
	}
	return delay
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
