package transport

import (
	"sync/atomic"
	"time"
)

// NewRateLimiter creates a token bucket holding maxTokens that regains one
// token every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		maxTokens:  int64(maxTokens),
		tokens:     int64(maxTokens),
		refillRate: refillRate,
		lastRefill: time.Now().UnixNano(),
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.refill()
	for {
		current := atomic.LoadInt64(&rl.tokens)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&rl.tokens, current, current-1) {
			return true
		}
	}
}

// Tokens reports the tokens currently available.
func (rl *RateLimiter) Tokens() int {
	return int(atomic.LoadInt64(&rl.tokens))
}

func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		return
	}
	now := time.Now().UnixNano()

	for {
		lastRefill := atomic.LoadInt64(&rl.lastRefill)
		toAdd := (now - lastRefill) / int64(rl.refillRate)
		if toAdd <= 0 {
			return
		}

		// Advance by whole refill periods only so partial periods carry over.
		if !atomic.CompareAndSwapInt64(&rl.lastRefill, lastRefill, lastRefill+toAdd*int64(rl.refillRate)) {
			continue
		}

		for {
			current := atomic.LoadInt64(&rl.tokens)
			next := current + toAdd
			if next > rl.maxTokens {
				next = rl.maxTokens
			}
			if atomic.CompareAndSwapInt64(&rl.tokens, current, next) {
				return
			}
		}
	}
}
