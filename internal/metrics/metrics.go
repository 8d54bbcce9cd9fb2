// Package metrics collects and exposes Prometheus metrics for vendor API
// usage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates counters for the vendor integration client.
type Collector struct {
	registry *prometheus.Registry

	vendorRequests *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector creates a Collector backed by its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		vendorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brandpanel_vendor_requests_total",
			Help: "Vendor API attempts by operation, API generation and classified outcome.",
		}, []string{"operation", "generation", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brandpanel_vendor_fallbacks_total",
			Help: "Endpoint candidate fallbacks by operation.",
		}, []string{"operation"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brandpanel_token_refreshes_total",
			Help: "Forced token refreshes by result.",
		}, []string{"result"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brandpanel_vendor_request_seconds",
			Help:    "Latency of individual vendor API attempts.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.vendorRequests,
		c.fallbacks,
		c.tokenRefreshes,
		c.requestLatency,
	)
	return c
}

// RecordVendorRequest counts one endpoint attempt and its latency.
func (c *Collector) RecordVendorRequest(operation, generation, outcome string, elapsed time.Duration) {
	c.vendorRequests.WithLabelValues(operation, generation, outcome).Inc()
	c.requestLatency.Observe(elapsed.Seconds())
}

// RecordFallback counts one fall-through to the next endpoint candidate.
func (c *Collector) RecordFallback(operation string) {
	c.fallbacks.WithLabelValues(operation).Inc()
}

// RecordTokenRefresh counts one forced token refresh.
func (c *Collector) RecordTokenRefresh(result string) {
	c.tokenRefreshes.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler serving the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
