// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	auditPagesTotal          *prometheus.CounterVec
	auditSitesTotal          *prometheus.CounterVec
	auditRetriesTotal        *prometheus.CounterVec
	auditSessionRestartTotal prometheus.Counter
	auditActiveWorkers       prometheus.Gauge
	auditFetchSeconds        *prometheus.HistogramVec
	auditPaceWaitSeconds     prometheus.Histogram

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		auditPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_pages_total",
				Help: "Pages fetched, labeled by site and fetch status.",
			},
			[]string{"site", "status"},
		)

		auditSitesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_sites_total",
				Help: "Sites reaching a terminal state, labeled by state.",
			},
			[]string{"state"},
		)

		auditRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_page_retries_total",
				Help: "Page fetch retries, labeled by error kind.",
			},
			[]string{"kind"},
		)

		auditSessionRestartTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "audit_session_restarts_total",
				Help: "Browser sessions recreated after a crash.",
			},
		)

		auditActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "audit_active_workers",
				Help: "Workers currently crawling a site.",
			},
		)

		auditFetchSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audit_fetch_duration_seconds",
				Help:    "Histogram of page render latencies, labeled by site.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"site"},
		)

		auditPaceWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audit_pace_wait_seconds",
				Help:    "Histogram of inter-request pacing waits.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one page fetch outcome.
func ObservePage(site, status string, duration time.Duration) {
	auditPagesTotal.WithLabelValues(site, status).Inc()
	auditFetchSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveSite records a site reaching a terminal state.
func ObserveSite(state string) {
	auditSitesTotal.WithLabelValues(state).Inc()
}

// ObserveRetry records one page retry by error kind.
func ObserveRetry(kind string) {
	auditRetriesTotal.WithLabelValues(kind).Inc()
}

// ObserveSessionRestart records a browser session recreation.
func ObserveSessionRestart() {
	auditSessionRestartTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	auditActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	auditActiveWorkers.Dec()
}

// ObservePaceWait records time spent in the inter-request limiter.
func ObservePaceWait(duration time.Duration) {
	auditPaceWaitSeconds.Observe(duration.Seconds())
}
