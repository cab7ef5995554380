// Package metrics holds the proxy's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on its own registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	providerAttempts *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	fragments        prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generative_proxy_requests_total",
				Help: "Proxied requests by whether the response body was customized",
			},
			[]string{"customized"},
		),
		providerAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generative_proxy_provider_attempts_total",
				Help: "Provider attempts by outcome (success, error, invalid)",
			},
			[]string{"provider", "outcome"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generative_proxy_provider_duration_seconds",
				Help:    "Duration of provider attempts",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"provider"},
		),
		fragments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "generative_proxy_rewrite_fragments",
				Help:    "Fragments sent per rewrite batch",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
	}
	m.registry.MustRegister(m.requests, m.providerAttempts, m.providerDuration, m.fragments)
	return m
}

// ObserveRequest counts one proxied request.
func (m *Metrics) ObserveRequest(customized bool) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.FormatBool(customized)).Inc()
}

// ObserveAttempt records one provider attempt.
func (m *Metrics) ObserveAttempt(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(provider, outcome).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveFragments records the size of one batch.
func (m *Metrics) ObserveFragments(n int) {
	if m == nil {
		return
	}
	m.fragments.Observe(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
