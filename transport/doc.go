// Package transport is the HTTP collaborator behind the taxjar client. It
// wraps net/http with composable, opt-in reliability primitives:
//
//   - Retries with exponential or decorrelated backoff (off by default)
//   - Rate limiting (token bucket)
//   - Response caching, in memory or in Redis, with per-request overrides
//   - Circuit breaker (closed / open / half-open)
//   - Request de-duplication of identical in-flight calls
//   - Middleware chain for cross-cutting concerns
//   - Prometheus metrics and zap structured logging
//
// A zero-option Client performs exactly one round trip per Do call:
//
//	client := transport.New(
//	    transport.WithTimeout(10*time.Second),
//	    transport.WithRateLimiter(10, time.Second),
//	    transport.WithMetrics(),
//	)
//	resp, err := client.Do(req)
//
// A single *Client is safe for concurrent use.
package transport
