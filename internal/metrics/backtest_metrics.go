package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yourusername/signal-backtest/internal/models"
)

// Signal counter vectors
var (
	SignalsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_processed_total",
		Help:      "Total number of signals processed by status",
	}, []string{"status"})
	SignalOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signal_outcomes_total",
		Help:      "Total number of evaluated signals by overall outcome",
	}, []string{"outcome"})
	EntryLegsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_legs_total",
		Help:      "Total number of simulated entry legs by outcome",
	}, []string{"outcome"})
	BatchRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Total number of completed backtest batches",
	})
)

// Histogram metrics
var (
	SignalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "signal_duration_seconds",
		Help:      "Duration of single signal evaluation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of backtest batches in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// Gauge metrics
var (
	LastBatchWinRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_batch_win_rate",
		Help:      "Win rate over closed trades of the most recent batch",
	})
	LastBatchClosedTrades = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_batch_closed_trades",
		Help:      "Closed trades in the most recent batch",
	})
)

// RecordSignal records one processed signal. Outcome is only counted for successes.
func RecordSignal(status models.Status, outcome models.Outcome, durationSeconds float64) {
	SignalsProcessedTotal.WithLabelValues(string(status)).Inc()
	if status == models.StatusSuccess {
		SignalOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	}
	SignalDuration.Observe(durationSeconds)
}

// RecordEntryLeg records one simulated entry leg.
func RecordEntryLeg(outcome models.Outcome) {
	EntryLegsTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordBatch records a completed batch.
func RecordBatch(durationSeconds, winRate float64, closedTrades int) {
	BatchRunsTotal.Inc()
	BatchDuration.Observe(durationSeconds)
	LastBatchWinRate.Set(winRate)
	LastBatchClosedTrades.Set(float64(closedTrades))
}
