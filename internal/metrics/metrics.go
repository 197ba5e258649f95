// Package metrics exposes Prometheus instrumentation for the feed service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can be wired without instrumentation in
// tests.
type Metrics struct {
	registry *prometheus.Registry

	refreshesTotal    *prometheus.CounterVec
	refreshErrors     prometheus.Counter
	itemsRanked       prometheus.Counter
	queueDepth        prometheus.Gauge
	queueEvictions    prometheus.Counter
	activeSessions    prometheus.Gauge
	streamEvents      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		refreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_refreshes_total",
			Help: "Feed re-rank cycles by trigger (auto, manual, consume, reset, foreground).",
		}, []string{"trigger"}),
		refreshErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_refresh_errors_total",
			Help: "Refresh cycles that failed and left the previous feed in place.",
		}),
		itemsRanked: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_items_ranked_total",
			Help: "Content items emitted by ranking passes.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_update_queue_items",
			Help: "Items currently buffered in update queues.",
		}),
		queueEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_update_queue_evictions_total",
			Help: "Queue entries dropped by FIFO eviction.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_active_sessions",
			Help: "Feed sessions currently held in memory.",
		}),
		streamEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stream_events_total",
			Help: "Change events received from the upstream stream by type.",
		}, []string{"type"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"method", "route"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records a completed re-rank cycle.
func (m *Metrics) ObserveRefresh(trigger string, itemsRanked int) {
	if m == nil {
		return
	}
	m.refreshesTotal.WithLabelValues(trigger).Inc()
	m.itemsRanked.Add(float64(itemsRanked))
}

// ObserveRefreshError records a refresh cycle that failed.
func (m *Metrics) ObserveRefreshError() {
	if m == nil {
		return
	}
	m.refreshErrors.Inc()
}

// AddQueueDepth adjusts the buffered-items gauge by delta.
func (m *Metrics) AddQueueDepth(delta int) {
	if m == nil {
		return
	}
	m.queueDepth.Add(float64(delta))
}

// ObserveQueueEviction records a FIFO eviction.
func (m *Metrics) ObserveQueueEviction() {
	if m == nil {
		return
	}
	m.queueEvictions.Inc()
}

// SetActiveSessions records the number of live sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObserveStreamEvent records one upstream change event.
func (m *Metrics) ObserveStreamEvent(eventType string) {
	if m == nil {
		return
	}
	m.streamEvents.WithLabelValues(eventType).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
