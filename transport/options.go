package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/recheej/taxjar-go/internal/backoff"
	"github.com/recheej/taxjar-go/internal/singleflight"
)

// WithMaxRetries sets the maximum number of retry attempts. Zero disables
// retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithInitialBackoff sets the initial backoff duration
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = d
	}
}

// WithMaxBackoff sets the maximum backoff duration
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.maxBackoff = d
	}
}

// WithBackoffMultiplier sets the backoff multiplier
func WithBackoffMultiplier(f float64) Option {
	return func(c *Client) {
		c.backoffMultiplier = f
	}
}

// WithJitter sets the jitter factor, clamped to [0, 1].
func WithJitter(f float64) Option {
	return func(c *Client) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.jitter = f
	}
}

// WithBackoffStrategy selects the retry delay algorithm.
func WithBackoffStrategy(strategy BackoffStrategy) Option {
	return func(c *Client) {
		c.backoff = backoff.ByName(string(strategy))
	}
}

// WithRetryCondition sets a custom retry condition
func WithRetryCondition(fn RetryCondition) Option {
	return func(c *Client) {
		c.retryCondition = fn
	}
}

// WithRateLimiter sets the rate limiter
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithCircuitBreaker sets the circuit breaker configuration
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.circuitBreaker = NewCircuitBreaker(config)
	}
}

// WithCache enables caching with the default in-memory cache
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = NewInMemoryCache()
		c.cacheTTL = ttl
	}
}

// WithCustomCache sets a custom cache implementation, such as a RedisCache.
func WithCustomCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithCacheKeyFunc sets a custom cache key function
func WithCacheKeyFunc(fn func(*http.Request) string) Option {
	return func(c *Client) {
		c.cacheKeyFunc = fn
	}
}

// WithCacheCondition sets a custom cache condition function
func WithCacheCondition(fn CacheCondition) Option {
	return func(c *Client) {
		c.cacheCondition = fn
	}
}

// WithTimeout sets the per-attempt request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client. A timeout configured
// earlier is applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		if client != nil && c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegistry enables Prometheus metrics on reg.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(reg)
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = NewNopLogger()
		}
		c.logger = logger
	}
}

// WithRequestIDGenerator sets the function used to tag each Do call.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

// WithDeduplication collapses identical concurrent requests into a single
// round trip.
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = singleflight.New[*CacheEntry]()
	}
}

// WithDeduplicationKeyFunc sets a custom deduplication key function
func WithDeduplicationKeyFunc(fn DeduplicationKeyFunc) Option {
	return func(c *Client) {
		c.dedupKeyFunc = fn
	}
}

// WithDeduplicationCondition sets a custom deduplication condition function
func WithDeduplicationCondition(fn DeduplicationCondition) Option {
	return func(c *Client) {
		c.dedupCondition = fn
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateRetryConfig()...)
	problems = append(problems, c.validateRateLimiterConfig()...)
	problems = append(problems, c.validateCacheConfig()...)
	problems = append(problems, c.validateCircuitBreakerConfig()...)
	problems = append(problems, c.validateDeduplicationConfig()...)
	problems = append(problems, c.validateMiddlewareConfig()...)
	problems = append(problems, c.validateExtremeValues()...)

	if c.httpClient == nil {
		problems = append(problems, "HTTP client cannot be nil")
	}
	if c.requestIDGen == nil {
		problems = append(problems, "request ID generator cannot be nil")
	}

	if len(problems) > 0 {
		return &ClientError{
			Type:      ErrorTypeValidation,
			Message:   "configuration validation failed",
			Cause:     fmt.Errorf("validation errors: %s", strings.Join(problems, "; ")),
			Timestamp: time.Now(),
		}
	}

	return nil
}

func (c *Client) validateRetryConfig() []string {
	var problems []string

	if c.maxRetries < 0 {
		problems = append(problems, "maxRetries must be non-negative")
	}
	if c.initialBackoff <= 0 {
		problems = append(problems, "initialBackoff must be positive")
	}
	if c.maxBackoff < c.initialBackoff {
		problems = append(problems, "maxBackoff must be greater than or equal to initialBackoff")
	}
	if c.backoffMultiplier <= 0 {
		problems = append(problems, "backoffMultiplier must be positive")
	}
	if c.timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.retryCondition == nil {
		problems = append(problems, "retryCondition cannot be nil")
	}

	return problems
}

func (c *Client) validateRateLimiterConfig() []string {
	if c.rateLimiter == nil {
		return nil
	}

	var problems []string
	if c.rateLimiter.maxTokens <= 0 {
		problems = append(problems, "rateLimiter maxTokens must be positive")
	}
	if c.rateLimiter.refillRate <= 0 {
		problems = append(problems, "rateLimiter refillRate must be positive")
	}
	return problems
}

func (c *Client) validateCacheConfig() []string {
	if c.cache == nil {
		return nil
	}

	var problems []string
	if c.cacheTTL <= 0 {
		problems = append(problems, "cacheTTL must be positive when cache is enabled")
	}
	if c.cacheKeyFunc == nil {
		problems = append(problems, "cache key function must be set when cache is enabled")
	}
	if c.cacheCondition == nil {
		problems = append(problems, "cache condition must be set when cache is enabled")
	}
	return problems
}

func (c *Client) validateCircuitBreakerConfig() []string {
	if c.circuitBreaker == nil {
		return nil
	}

	var problems []string
	if c.circuitBreaker.config.FailureThreshold <= 0 {
		problems = append(problems, "circuitBreaker FailureThreshold must be positive")
	}
	if c.circuitBreaker.config.RecoveryTimeout <= 0 {
		problems = append(problems, "circuitBreaker RecoveryTimeout must be positive")
	}
	if c.circuitBreaker.config.SuccessThreshold <= 0 {
		problems = append(problems, "circuitBreaker SuccessThreshold must be positive")
	}
	return problems
}

func (c *Client) validateDeduplicationConfig() []string {
	if c.dedup == nil {
		return nil
	}

	var problems []string
	if c.dedupKeyFunc == nil {
		problems = append(problems, "deduplication key function must be set when deduplication is enabled")
	}
	if c.dedupCondition == nil {
		problems = append(problems, "deduplication condition must be set when deduplication is enabled")
	}
	return problems
}

func (c *Client) validateMiddlewareConfig() []string {
	var problems []string
	for i, middleware := range c.middleware {
		if middleware == nil {
			problems = append(problems, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}
	return problems
}

func (c *Client) validateExtremeValues() []string {
	var problems []string

	if c.maxRetries > 100 {
		problems = append(problems, "maxRetries > 100 may cause excessive resource usage")
	}
	if c.maxBackoff > time.Hour {
		problems = append(problems, "maxBackoff > 1h is likely a mistake")
	}
	if c.timeout > 10*time.Minute {
		problems = append(problems, "timeout > 10m is likely a mistake")
	}

	return problems
}
