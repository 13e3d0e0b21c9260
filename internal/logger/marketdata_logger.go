package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// MarketDataLogger provides dedicated logging for candle retrieval.
type MarketDataLogger struct {
	*logrus.Entry
}

// NewMarketDataLogger creates a new market data logger for one provider.
func NewMarketDataLogger(baseLogger *logrus.Logger, source string) *MarketDataLogger {
	return &MarketDataLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "marketdata",
			"source":    source,
		}),
	}
}

// LogFetch logs one candle fetch.
func (ml *MarketDataLogger) LogFetch(symbol string, start, end time.Time, candles int, duration time.Duration) {
	ml.WithFields(logrus.Fields{
		"symbol":      symbol,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
		"candles":     candles,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Candles fetched")
}

// LogCacheStats logs candle cache effectiveness.
func (ml *MarketDataLogger) LogCacheStats(hits, misses uint64, entries int) {
	ml.WithFields(logrus.Fields{
		"cache_hits":    hits,
		"cache_misses":  misses,
		"cache_entries": entries,
	}).Info("Candle cache statistics")
}
