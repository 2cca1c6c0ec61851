package transport

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/recheej/taxjar-go/internal/backoff"
)

// BackoffStrategy names a retry delay algorithm.
type BackoffStrategy string

const (
	ExponentialJitter  BackoffStrategy = "exponential"
	DecorrelatedJitter BackoffStrategy = "decorrelated"
)

// maxRetryAfter caps a server supplied Retry-After delay.
const maxRetryAfter = time.Hour

// DefaultRetryCondition retries network failures, 429 and 5xx responses.
func DefaultRetryCondition(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

func (c *Client) retryDelay(resp *http.Response, attempt int) time.Duration {
	if resp != nil {
		if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
			return d
		}
	}
	return c.backoff.Delay(attempt, backoff.Params{
		Initial:    c.initialBackoff,
		Max:        c.maxBackoff,
		Multiplier: c.backoffMultiplier,
		Jitter:     c.jitter,
	})
}

// parseRetryAfter accepts delay-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		d := time.Duration(seconds) * time.Second
		if d > maxRetryAfter {
			d = maxRetryAfter
		}
		return d
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 && d <= maxRetryAfter {
			return d
		}
	}
	return 0
}

// drain discards a response that is about to be retried so the connection
// can be reused.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBufferedBody))
	_ = resp.Body.Close()
}
