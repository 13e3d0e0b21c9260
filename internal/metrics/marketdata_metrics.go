package metrics

import "github.com/prometheus/client_golang/prometheus"

// Market data metrics
var (
	CandleFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candle_fetches_total",
		Help:      "Total number of candle fetches by source and status",
	}, []string{"source", "status"})
	CandleFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "candle_fetch_duration_seconds",
		Help:      "Duration of candle fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	CandleCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "candle_cache_hit_ratio",
		Help:      "Ratio of candle requests served from cache",
	})
)

// RecordCandleFetch records one candle fetch against a provider.
// status should be one of: "success", "failure"
func RecordCandleFetch(source, status string, durationSeconds float64) {
	CandleFetchesTotal.WithLabelValues(source, status).Inc()
	CandleFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// UpdateCacheHitRatio updates the candle cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	CandleCacheHitRatio.Set(ratio)
}
