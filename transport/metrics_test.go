package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsCollectorIsNoop(t *testing.T) {
	var mc *MetricsCollector

	mc.RecordRequest("GET", "/", 200, time.Second)
	mc.RecordRequestStart("GET", "/")
	mc.RecordRequestEnd("GET", "/")
	mc.RecordRetry("GET", "/", 1)
	mc.RecordCircuitBreakerState("default", StateOpen)
	mc.RecordRateLimiterTokens("default", 3)
	mc.RecordCacheHit("GET", "/")
	mc.RecordCacheMiss("GET", "/")
	mc.RecordDeduplicationHit("GET", "/")
	mc.RecordError(ErrorTypeNetwork, "GET", "/")
}

func TestMetricsCollectorRecords(t *testing.T) {
	mc := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())

	mc.RecordRequest("POST", "api/taxes", 200, 10*time.Millisecond)
	mc.RecordRequest("POST", "api/taxes", 200, 20*time.Millisecond)
	mc.RecordRetry("POST", "api/taxes", 1)
	mc.RecordCircuitBreakerState("default", StateHalfOpen)
	mc.RecordRateLimiterTokens("default", 7)
	mc.RecordError(ErrorTypeTimeout, "POST", "api/taxes")

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.requestsTotal.WithLabelValues("POST", "200", "api/taxes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.retriesTotal.WithLabelValues("POST", "api/taxes", "1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(mc.circuitBreakerState.WithLabelValues("default")))
	assert.Equal(t, 7.0, testutil.ToFloat64(mc.rateLimiterTokens.WithLabelValues("default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.errorsTotal.WithLabelValues(ErrorTypeTimeout, "POST", "api/taxes")))
}

func TestClientRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	client := New(WithMetricsRegistry(registry), WithCache(time.Minute))

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), server.URL+"/v2/rates")
		require.NoError(t, err)
		resp.Body.Close()
	}

	endpoint := server.Listener.Addr().String() + "/v2/rates"
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.cacheLookups.WithLabelValues("GET", endpoint, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.cacheLookups.WithLabelValues("GET", endpoint, "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(client.metrics.requestsTotal.WithLabelValues("GET", "200", endpoint)))
	assert.Equal(t, 0.0, testutil.ToFloat64(client.metrics.requestsInFlight.WithLabelValues("GET", endpoint)))

	count, err := testutil.GatherAndCount(registry, "taxjar_transport_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
