package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	ReasonerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "reasoner_requests_total",
			Help:      "Total number of language-reasoning calls",
		},
		[]string{"purpose", "status"},
	)

	ReasonerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentalsearch",
			Name:      "reasoner_request_duration_seconds",
			Help:      "Language-reasoning call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"purpose"},
	)

	ReasonerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "reasoner_cache_total",
			Help:      "Reasoning cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ScorerGroupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "scorer_groups_total",
			Help:      "Semantic scoring groups by outcome",
		},
		[]string{"outcome"}, // ok / call_error / parse_error / panic
	)

	FilterRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "filter_rejections_total",
			Help:      "Listings rejected by the deterministic filter, by rule",
		},
		[]string{"rule"},
	)

	CommuteFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "commute_fallback_total",
			Help:      "Commute analyses answered with a synthetic estimate",
		},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "searches_total",
			Help:      "Searches by ranking path",
		},
		[]string{"path"},
	)
)

// HTTP metrics, labelled by route template to keep cardinality bounded
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentalsearch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalsearch",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Register registers pipeline metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ReasonerRequestsTotal,
			ReasonerRequestDuration,
			ReasonerCacheTotal,
			ScorerGroupsTotal,
			FilterRejectionsTotal,
			CommuteFallbackTotal,
			SearchesTotal,
			HTTPRequestDuration,
			HTTPRequestsTotal,
		)
	})
}
