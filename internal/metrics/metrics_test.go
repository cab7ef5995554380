package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest(true)
	m.ObserveRequest(false)
	m.ObserveRequest(false)
	m.ObserveAttempt("Cerebras", "error", 2*time.Second)
	m.ObserveAttempt("Cerebras", "success", time.Second)
	m.ObserveFragments(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerAttempts.WithLabelValues("Cerebras", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fragments))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `generative_proxy_requests_total{customized="true"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(true)
		m.ObserveAttempt("x", "success", time.Millisecond)
		m.ObserveFragments(1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
