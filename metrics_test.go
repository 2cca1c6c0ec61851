package taxjar_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taxjar "github.com/recheej/taxjar-go"
	"github.com/recheej/taxjar-go/taxjartest"
)

func TestTaxForOrderRecordsQuoteMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	client, server := newStubbedClient(t, taxjartest.FixtureTaxes, taxjar.WithMetricsRegistry(registry))

	for i := 0; i < 2; i++ {
		_, err := client.TaxForOrder(context.Background(), usOrder())
		require.NoError(t, err)
	}
	_, err := client.TaxForOrder(context.Background(), nil)
	require.Error(t, err)

	server.RequireAPIKey("another-key")
	_, err = client.TaxForOrder(context.Background(), usOrder())
	require.Error(t, err)

	expected := `
# HELP taxjar_quotes_total Tax calculations by outcome: success, transport, api, parse or request
# TYPE taxjar_quotes_total counter
taxjar_quotes_total{outcome="api"} 1
taxjar_quotes_total{outcome="request"} 1
taxjar_quotes_total{outcome="success"} 2
# HELP taxjar_quote_jurisdictions_total Successful tax calculations by destination country and state
# TYPE taxjar_quote_jurisdictions_total counter
taxjar_quote_jurisdictions_total{country="US",has_nexus="true",state="NJ"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"taxjar_quotes_total", "taxjar_quote_jurisdictions_total"))

	count, err := testutil.GatherAndCount(registry, "taxjar_quote_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestQuoteMetricsSharedBetweenClients(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := taxjar.NewQuoteMetrics(registry)

	server := taxjartest.NewServer()
	t.Cleanup(server.Close)
	require.NoError(t, server.StubFixture(http.MethodPost, "/v2/taxes", http.StatusOK, taxjartest.FixtureTaxesCanada))

	for i := 0; i < 2; i++ {
		client := taxjar.New(testAPIKey, taxjar.WithAPIURL(server.URL()), taxjar.WithQuoteMetrics(metrics))
		_, err := client.TaxForOrder(context.Background(), &taxjar.OrderParams{ToCountry: "CA", ToState: "ON", Shipping: 10})
		require.NoError(t, err)
	}

	count, err := testutil.GatherAndCount(registry, "taxjar_quote_amount_to_collect")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP taxjar_quotes_total Tax calculations by outcome: success, transport, api, parse or request
# TYPE taxjar_quotes_total counter
taxjar_quotes_total{outcome="success"} 2
`), "taxjar_quotes_total")
	assert.NoError(t, err)
}
