package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recheej/taxjar-go/internal/backoff"
	"github.com/recheej/taxjar-go/internal/singleflight"
)

// Client layers optional retries, circuit breaking, rate limiting, caching,
// de-duplication, middleware and metrics around a net/http Client.
type Client struct {
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	jitter            float64
	backoff           backoff.Strategy
	timeout           time.Duration
	retryCondition    RetryCondition
	circuitBreaker    *CircuitBreaker
	middleware        []Middleware
	rateLimiter       *RateLimiter
	cache             Cache
	cacheTTL          time.Duration
	cacheKeyFunc      func(*http.Request) string
	cacheCondition    CacheCondition
	dedup             *singleflight.Group[*CacheEntry]
	dedupKeyFunc      DeduplicationKeyFunc
	dedupCondition    DeduplicationCondition
	metrics           *MetricsCollector
	logger            Logger
	requestIDGen      func() string
	validationError   error
}

// New constructs a Client using the provided functional options. Without
// options every Do call is a single round trip with a 30s timeout.
// Validation is best effort; see IsValid and ValidationError.
func New(options ...Option) *Client {
	client := &Client{
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		maxRetries:        0,
		initialBackoff:    100 * time.Millisecond,
		maxBackoff:        10 * time.Second,
		backoffMultiplier: 2.0,
		jitter:            0.1,
		backoff:           backoff.Exponential{},
		timeout:           30 * time.Second,
		retryCondition:    DefaultRetryCondition,
		cacheTTL:          5 * time.Minute,
		cacheKeyFunc:      DefaultCacheKeyFunc,
		cacheCondition:    DefaultCacheCondition,
		dedupKeyFunc:      DefaultDeduplicationKeyFunc,
		dedupCondition:    DefaultDeduplicationCondition,
		logger:            NewNopLogger(),
		requestIDGen:      uuid.NewString,
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Get performs an HTTP GET with context.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post performs an HTTP POST with the given content type.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// Do executes req through every configured layer. A non-2xx status is not
// an error at this level; errors are *ClientError values for requests that
// produced no usable response.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	endpoint := endpointOf(req)
	requestID := c.requestIDGen()

	c.metrics.RecordRequestStart(req.Method, endpoint)
	defer c.metrics.RecordRequestEnd(req.Method, endpoint)

	c.logger.Debug("Starting request", "requestID", requestID, "method", req.Method, "endpoint", endpoint)

	var resp *http.Response
	var err error
	if c.dedup != nil && c.dedupCondition(req) {
		resp, err = c.doDeduplicated(req, requestID, start)
	} else {
		resp, err = c.doCached(req, requestID, start)
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	duration := time.Since(start)
	c.metrics.RecordRequest(req.Method, endpoint, statusCode, duration)

	if err != nil {
		c.logger.Warn("Request failed", "requestID", requestID, "endpoint", endpoint, "error", err.Error(), "duration", duration)
	} else {
		c.logger.Debug("Request completed", "requestID", requestID, "endpoint", endpoint, "statusCode", statusCode, "duration", duration)
	}
	return resp, err
}

func (c *Client) doDeduplicated(req *http.Request, requestID string, start time.Time) (*http.Response, error) {
	endpoint := endpointOf(req)
	key := c.dedupKeyFunc(req)

	entry, shared, err := c.dedup.DoContext(req.Context(), key, func() (*CacheEntry, error) {
		resp, err := c.doCached(req, requestID, start)
		if err != nil {
			return nil, err
		}
		entry, err := newEntry(resp)
		if err != nil {
			return nil, c.newClientError(ErrorTypeNetwork, "reading response body", err, requestID, req, 0, start)
		}
		return entry, nil
	})
	if shared {
		c.metrics.RecordDeduplicationHit(req.Method, endpoint)
		c.logger.Debug("Deduplication hit", "requestID", requestID, "dedupKey", key)
	}
	if err != nil {
		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			err = c.newClientError(classifyError(err), "context done while waiting for a duplicate request", err, requestID, req, 0, start)
		}
		return nil, err
	}
	return entry.Response(req), nil
}

func (c *Client) doCached(req *http.Request, requestID string, start time.Time) (*http.Response, error) {
	if !c.shouldCacheRequest(req) {
		return c.doWithRetry(req, 0, requestID, start)
	}

	endpoint := endpointOf(req)
	key := c.cacheKeyFunc(req)
	if entry, ok := c.cache.Get(req.Context(), key); ok {
		c.metrics.RecordCacheHit(req.Method, endpoint)
		c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", key)
		return entry.Response(req), nil
	}
	c.metrics.RecordCacheMiss(req.Method, endpoint)
	c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", key)

	resp, err := c.doWithRetry(req, 0, requestID, start)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, err
	}

	entry, err := newEntry(resp)
	if err != nil {
		return nil, c.newClientError(ErrorTypeNetwork, "reading response body", err, requestID, req, 0, start)
	}
	ttl := c.cacheTTLForRequest(req)
	c.cache.Set(req.Context(), key, entry, ttl)
	c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", key, "ttl", ttl)

	return entry.Response(req), nil
}

func (c *Client) doWithRetry(req *http.Request, attempt int, requestID string, start time.Time) (*http.Response, error) {
	endpoint := endpointOf(req)

	if c.rateLimiter != nil {
		if !c.rateLimiter.Allow() {
			c.logger.Warn("Rate limit exceeded", "requestID", requestID, "endpoint", endpoint)
			c.metrics.RecordError(ErrorTypeRateLimit, req.Method, endpoint)
			return nil, c.newClientError(ErrorTypeRateLimit, "rate limit exceeded", ErrRateLimited, requestID, req, attempt, start)
		}
		c.metrics.RecordRateLimiterTokens("default", c.rateLimiter.Tokens())
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		c.logger.Warn("Circuit breaker open", "requestID", requestID, "endpoint", endpoint)
		c.metrics.RecordError(ErrorTypeCircuitOpen, req.Method, endpoint)
		return nil, c.newClientError(ErrorTypeCircuitOpen, "circuit breaker is open", ErrCircuitOpen, requestID, req, attempt, start)
	}

	if attempt > 0 {
		c.logger.Info("Retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", c.maxRetries, "endpoint", endpoint)
		c.metrics.RecordRetry(req.Method, endpoint, attempt)
		if err := rewindBody(req); err != nil {
			return nil, c.newClientError(ErrorTypeNetwork, "request body cannot be replayed", err, requestID, req, attempt, start)
		}
	}

	resp, err := c.executeMiddleware(req)

	serverFailure := err == nil && resp.StatusCode >= 500
	if c.circuitBreaker != nil {
		if err != nil || serverFailure {
			c.circuitBreaker.RecordFailure()
		} else {
			c.circuitBreaker.RecordSuccess()
		}
		c.metrics.RecordCircuitBreakerState("default", c.circuitBreaker.State())
	}
	if err != nil {
		c.metrics.RecordError(classifyError(err), req.Method, endpoint)
	} else if serverFailure {
		c.metrics.RecordError("Server", req.Method, endpoint)
	}

	if attempt < c.maxRetries && c.retryCondition(resp, err) {
		delay := c.retryDelay(resp, attempt)
		drain(resp)
		c.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			ctxErr := req.Context().Err()
			return nil, c.newClientError(classifyError(ctxErr), "context done before retry", ctxErr, requestID, req, attempt, start)
		case <-timer.C:
		}
		return c.doWithRetry(req, attempt+1, requestID, start)
	}

	if err != nil {
		return nil, c.newClientError(classifyError(err), "request failed", err, requestID, req, attempt, start)
	}
	return resp, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripper(RoundTripperFunc(c.httpClient.Do))
	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) newClientError(errorType, message string, cause error, requestID string, req *http.Request, attempt int, start time.Time) *ClientError {
	return &ClientError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		RequestID:  requestID,
		Method:     req.Method,
		URL:        req.URL.String(),
		Endpoint:   endpointOf(req),
		Attempt:    attempt,
		MaxRetries: c.maxRetries,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

var errBodyNotReplayable = errors.New("request body has no GetBody")

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}

func endpointOf(req *http.Request) string {
	if req.URL == nil {
		return "unknown"
	}

	var b strings.Builder
	b.WriteString(req.URL.Host)
	if req.URL.Path != "" && req.URL.Path != "/" {
		b.WriteString(req.URL.Path)
	} else {
		b.WriteByte('/')
	}
	return b.String()
}
