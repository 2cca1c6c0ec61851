// Package backoff computes retry delays for the transport layer.
package backoff

import (
	"math/rand"
	"time"
)

// Params describes the delay envelope shared by all strategies.
type Params struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Strategy turns an attempt number into a delay.
type Strategy interface {
	Delay(attempt int, p Params) time.Duration
}

// Exponential grows the delay by Multiplier per attempt and adds up to
// Jitter*delay of uniform noise. The result never exceeds Max.
type Exponential struct{}

// Delay implements Strategy.
func (Exponential) Delay(attempt int, p Params) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^30 already overflows any sane Max.
	if attempt > 30 {
		attempt = 30
	}

	d := time.Duration(float64(p.Initial) * Pow(p.Multiplier, attempt))
	if d < 0 || d > p.Max {
		d = p.Max
	}

	jitter := clampJitter(p.Jitter)
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > p.Max {
			return p.Max
		}
		d += extra
	}
	return d
}

// Decorrelated picks a random delay between Initial and min(Max, Initial*3^attempt).
// See https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/.
type Decorrelated struct{}

// Delay implements Strategy.
func (Decorrelated) Delay(attempt int, p Params) time.Duration {
	if attempt <= 0 {
		return p.Initial
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(p.Initial)
	upper := base * Pow(3.0, attempt)
	if upper > float64(p.Max) || upper < 0 {
		upper = float64(p.Max)
	}
	if upper < base {
		upper = base
	}

	d := time.Duration(base + rand.Float64()*(upper-base))
	if d < 0 || d > p.Max {
		d = p.Max
	}
	return d
}

// ByName resolves a strategy from its configuration name. Unknown names
// fall back to Exponential.
func ByName(name string) Strategy {
	switch name {
	case "decorrelated":
		return Decorrelated{}
	default:
		return Exponential{}
	}
}

// Pow returns base^exponent for a non-negative integer exponent.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}
