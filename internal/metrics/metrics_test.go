package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"shop-auth/internal/metrics"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveVerification("local", "valid")
		m.ObserveRemoteCall(time.Now())
		m.TokenIssued("access")
		m.Revocation("set")
	})
}

func TestMetrics_CountsVerifications(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveVerification("local", "valid")
	m.ObserveVerification("local", "valid")
	m.ObserveVerification("remote", "invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerificationCounter("local", "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationCounter("remote", "invalid")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	m.TokenIssued("access")

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shop_auth_tokens_issued_total{type="access"} 1`)
}
