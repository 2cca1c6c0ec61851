package taxjar

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values besides the lowercased ErrorType.
const (
	outcomeSuccess = "success"
	outcomeUnknown = "unknown"
)

// QuoteMetrics records tax calculations. A nil *QuoteMetrics records
// nothing. Register it once per registry and share it between clients
// with WithQuoteMetrics.
type QuoteMetrics struct {
	quotes        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	jurisdictions *prometheus.CounterVec
	collected     prometheus.Histogram
}

// NewQuoteMetrics registers the quote collectors with registry.
func NewQuoteMetrics(registry prometheus.Registerer) *QuoteMetrics {
	factory := promauto.With(registry)

	return &QuoteMetrics{
		quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxjar_quotes_total",
			Help: "Tax calculations by outcome: success, transport, api, parse or request",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxjar_quote_duration_seconds",
			Help:    "Time spent in TaxForOrder",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		jurisdictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxjar_quote_jurisdictions_total",
			Help: "Successful tax calculations by destination country and state",
		}, []string{"country", "state", "has_nexus"}),
		collected: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxjar_quote_amount_to_collect",
			Help:    "Sales tax to collect per successful calculation",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
	}
}

func (m *QuoteMetrics) record(tax *Tax, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := quoteOutcome(err)
	m.quotes.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if err == nil && tax != nil {
		nexus := "false"
		if tax.HasNexus {
			nexus = "true"
		}
		m.jurisdictions.WithLabelValues(tax.Jurisdictions.Country, tax.Jurisdictions.State, nexus).Inc()
		m.collected.Observe(tax.AmountToCollect)
	}
}

func quoteOutcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var tjErr *Error
	if errors.As(err, &tjErr) {
		return strings.ToLower(string(tjErr.Type))
	}
	return outcomeUnknown
}
