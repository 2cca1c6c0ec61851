package taxjar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recheej/taxjar-go/transport"
)

const (
	// DefaultAPIURL is the production API base URL.
	DefaultAPIURL = "https://api.taxjar.com/v2"
	// SandboxAPIURL is the sandbox API base URL.
	SandboxAPIURL = "https://api.sandbox.taxjar.com/v2"
)

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 10 * 1024 * 1024

// Doer sends an HTTP request. *transport.Client and *http.Client both
// satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the tax API. Its configuration is fixed by New, so a single
// Client may be shared between goroutines.
type Client struct {
	apiKey     string
	apiURL     string
	apiVersion string
	userAgent  string
	headers    http.Header
	timeout    time.Duration

	doer           Doer
	customDoer     bool
	transportOpts  []transport.Option
	logger         Logger
	metrics        *QuoteMetrics
	validationErrs []string
	validationErr  error
}

// New creates a Client authenticating with apiKey. Without WithTransport a
// transport.Client is built from WithTransportOptions; by default it makes
// exactly one attempt per call.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiURL:    DefaultAPIURL,
		userAgent: UserAgent(),
		headers:   make(http.Header),
		logger:    transport.NewNopLogger(),
	}

	for _, option := range options {
		option(c)
	}

	if !c.customDoer {
		opts := []transport.Option{transport.WithLogger(c.logger)}
		if c.timeout > 0 {
			opts = append(opts, transport.WithTimeout(c.timeout))
		}
		opts = append(opts, c.transportOpts...)

		tc := transport.New(opts...)
		if err := tc.ValidationError(); err != nil {
			c.validationErrs = append(c.validationErrs, err.Error())
		}
		c.doer = tc
	}

	c.validate()
	return c
}

func (c *Client) validate() {
	if c.customDoer && c.doer == nil {
		c.validationErrs = append(c.validationErrs, "transport cannot be nil")
	}

	u, err := url.Parse(c.apiURL)
	switch {
	case err != nil:
		c.validationErrs = append(c.validationErrs, fmt.Sprintf("invalid API URL %q: %v", c.apiURL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		c.validationErrs = append(c.validationErrs, fmt.Sprintf("API URL %q must use http or https", c.apiURL))
	case u.Host == "":
		c.validationErrs = append(c.validationErrs, fmt.Sprintf("API URL %q has no host", c.apiURL))
	}

	if len(c.validationErrs) > 0 {
		c.validationErr = &Error{
			Type:    ErrorTypeRequest,
			Message: "invalid client configuration: " + strings.Join(c.validationErrs, "; "),
		}
	}
}

// IsValid reports whether the configuration given to New is usable.
func (c *Client) IsValid() bool {
	return c.validationErr == nil
}

// ValidationError returns the configuration problem found by New, if any.
// Every call on an invalid Client returns it without touching the network.
func (c *Client) ValidationError() error {
	return c.validationErr
}

// APIURL returns the base URL requests are sent to.
func (c *Client) APIURL() string {
	return c.apiURL
}

// TaxForOrder calculates the sales tax for an order. It makes exactly one
// call on the transport and never retries. Failures are *Error values:
// ErrorTypeTransport when no response arrived, ErrorTypeAPI for a non-2xx
// status and ErrorTypeParse for an undecodable body.
func (c *Client) TaxForOrder(ctx context.Context, params *OrderParams) (*Tax, error) {
	start := time.Now()
	tax, err := c.taxForOrder(ctx, params)
	c.metrics.record(tax, err, time.Since(start))
	return tax, err
}

func (c *Client) taxForOrder(ctx context.Context, params *OrderParams) (*Tax, error) {
	if c.validationErr != nil {
		return nil, c.validationErr
	}
	if params == nil {
		return nil, &Error{Type: ErrorTypeRequest, Message: "order params are required"}
	}

	var envelope struct {
		Tax *Tax `json:"tax"`
	}
	if err := c.post(ctx, "taxes", params, &envelope); err != nil {
		return nil, err
	}
	if envelope.Tax == nil {
		return nil, &Error{Type: ErrorTypeParse, Message: `response has no "tax" object`}
	}
	return envelope.Tax, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Type: ErrorTypeRequest, Message: "encoding request body", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return &Error{Type: ErrorTypeRequest, Message: "building request", Cause: err}
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint := strings.TrimRight(c.apiURL, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiVersion != "" {
		req.Header.Set("x-api-version", c.apiVersion)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	c.logger.Debug("Sending API request", "method", req.Method, "url", req.URL.String())

	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Warn("API request failed", "method", req.Method, "url", req.URL.String(), "error", err.Error())
		return &Error{Type: ErrorTypeTransport, Message: "request failed", Cause: err}
	}
	if resp == nil {
		return &Error{Type: ErrorTypeTransport, Message: "transport returned no response"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Error{
			Type:       ErrorTypeTransport,
			Message:    "reading response body",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Cause:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp, data)
		c.logger.Warn("API returned an error", "url", req.URL.String(), "statusCode", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("Undecodable API response", "url", req.URL.String(), "statusCode", resp.StatusCode, "error", err.Error())
		return &Error{
			Type:       ErrorTypeParse,
			Message:    "decoding response body",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
			Cause:      err,
		}
	}

	c.logger.Debug("API request completed", "url", req.URL.String(), "statusCode", resp.StatusCode, "duration", time.Since(start))
	return nil
}
