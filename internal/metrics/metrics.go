// Package metrics provides centralized Prometheus metrics registry for the signal backtester.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signal_backtest"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register signal metrics
		registry.MustRegister(SignalsProcessedTotal)
		registry.MustRegister(SignalOutcomesTotal)
		registry.MustRegister(EntryLegsTotal)
		registry.MustRegister(SignalDuration)

		// Register batch metrics
		registry.MustRegister(BatchRunsTotal)
		registry.MustRegister(BatchDuration)
		registry.MustRegister(LastBatchWinRate)
		registry.MustRegister(LastBatchClosedTrades)

		// Register market data metrics
		registry.MustRegister(CandleFetchesTotal)
		registry.MustRegister(CandleFetchDuration)
		registry.MustRegister(CandleCacheHitRatio)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
