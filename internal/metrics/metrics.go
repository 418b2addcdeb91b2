// Package metrics provides Prometheus metrics for the shabbat API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shabbat"

var (
	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request handling time.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ScrapeAttemptsTotal counts minyan calendar fetches by outcome.
	ScrapeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minyan_scrape_attempts_total",
			Help:      "Total number of minyan calendar fetch attempts",
		},
		[]string{"status"},
	)

	// ScrapeDuration measures one calendar week fetch.
	ScrapeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "minyan_scrape_duration_seconds",
			Help:      "Duration of minyan calendar fetches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CacheEntries tracks how many Fridays the minyan cache holds.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "minyan_cache_entries",
			Help:      "Number of Fridays in the minyan cache",
		},
	)

	// CacheLastUpdated is the unix time of the last cache write.
	CacheLastUpdated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "minyan_cache_last_updated_seconds",
			Help:      "Unix time the minyan cache was last updated",
		},
	)
)

// RecordRequest records one handled HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordScrape records one calendar fetch.
func RecordScrape(success bool, duration float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	ScrapeAttemptsTotal.WithLabelValues(status).Inc()
	ScrapeDuration.Observe(duration)
}

// SetCacheState publishes the size and age of the minyan cache.
func SetCacheState(entries int, lastUpdatedUnix int64) {
	CacheEntries.Set(float64(entries))
	if lastUpdatedUnix > 0 {
		CacheLastUpdated.Set(float64(lastUpdatedUnix))
	}
}
