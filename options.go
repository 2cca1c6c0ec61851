package taxjar

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/recheej/taxjar-go/transport"
)

// Option configures a Client.
type Option func(*Client)

// WithAPIURL sets the API base URL, including the version segment, e.g.
// "http://localhost:9191/v2". A trailing slash is accepted.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		c.apiURL = apiURL
	}
}

// WithSandbox targets the sandbox environment.
func WithSandbox() Option {
	return WithAPIURL(SandboxAPIURL)
}

// WithAPIVersion pins the API version with the x-api-version header.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHeader adds a header to every request. It cannot override the
// authentication or content negotiation headers.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithUserAgent replaces the default User-Agent.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTransport sends requests through doer instead of a transport.Client
// built from WithTransportOptions.
func WithTransport(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
		c.customDoer = true
	}
}

// WithHTTPClient is shorthand for WithTransport(client).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.customDoer = true
		if client != nil {
			c.doer = client
		}
	}
}

// WithTransportOptions configures the default transport.Client, e.g. to
// enable retries, caching or metrics. Ignored together with WithTransport.
func WithTransportOptions(options ...transport.Option) Option {
	return func(c *Client) {
		c.transportOpts = append(c.transportOpts, options...)
	}
}

// WithLogger sets the logger used by the Client and its default transport.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = transport.NewNopLogger()
		}
		c.logger = logger
	}
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetricsRegistry registers quote metrics with registry. Each call
// registers new collectors, so use WithQuoteMetrics when several clients
// share a registry.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewQuoteMetrics(registry)
	}
}

// WithQuoteMetrics records calculations in m.
func WithQuoteMetrics(m *QuoteMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}
