package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutOutcome(t *testing.T) {
	m := New()
	m.CheckoutOutcome(CheckoutCompleted)
	m.CheckoutOutcome(CheckoutCompleted)
	m.CheckoutOutcome(CheckoutEmptyCart)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(CheckoutCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(CheckoutEmptyCart)))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.CheckoutOutcome(CheckoutFailed) })
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Requests.WithLabelValues("/api/albums", "GET", "200").Inc()
	m.LatencyMS.WithLabelValues("/api/albums").Observe(12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `waxroom_http_requests_total{method="GET",route="/api/albums",status="200"} 1`)
	assert.Contains(t, string(body), "waxroom_http_request_duration_ms_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
