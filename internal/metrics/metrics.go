// Package metrics defines the prometheus collectors for the adsearch
// service and the HTTP middleware that feeds the request-level ones.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adsearch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsearch",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	indexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "adsearch",
			Name:      "index_request_duration_seconds",
			Help:      "Document index round-trip duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	taxonomyCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adsearch",
			Name:      "taxonomy_cache_total",
			Help:      "Taxonomy label cache lookups by result",
		},
		[]string{"result"},
	)

	bulkExportedAds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "adsearch",
			Name:      "bulk_exported_ads_total",
			Help:      "Total number of ads written to bulk archives",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(indexRequestDuration)
	prometheus.MustRegister(taxonomyCacheTotal)
	prometheus.MustRegister(bulkExportedAds)
}

// TaxonomyCacheCounter exposes the cache counter for the label cache
// decorator.
func TaxonomyCacheCounter() *prometheus.CounterVec {
	return taxonomyCacheTotal
}

// CountExportedAds adds n to the bulk export counter.
func CountExportedAds(n int) {
	bulkExportedAds.Add(float64(n))
}

// IndexObserver records index round-trip durations; it satisfies the index
// client's Observer interface.
type IndexObserver struct{}

// ObserveIndexRequest records one round trip.
func (IndexObserver) ObserveIndexRequest(op string, seconds float64) {
	indexRequestDuration.WithLabelValues(op).Observe(seconds)
}
