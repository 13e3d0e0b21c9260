package logger

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/models"
)

// BacktestLogger provides dedicated logging for signal evaluation.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogSignalResult logs a successfully evaluated signal.
func (bl *BacktestLogger) LogSignalResult(result *models.BacktestResult) {
	bl.WithFields(logrus.Fields{
		"row":              result.Signal.Row,
		"symbol":           result.Signal.Symbol,
		"direction":        result.Signal.Direction,
		"outcome":          result.Outcome,
		"filled_entries":   result.FilledEntries,
		"weighted_pnl_pct": result.WeightedPnLPct,
		"holding_minutes":  result.AvgHoldingMinutes,
	}).Debug("Signal evaluated")
}

// LogSignalError logs a signal that could not be evaluated.
func (bl *BacktestLogger) LogSignalError(sig models.Signal, message string) {
	bl.WithFields(logrus.Fields{
		"row":    sig.Row,
		"symbol": sig.Symbol,
		"error":  message,
	}).Warn("Signal evaluation failed")
}

// LogSummary logs the batch summary.
func (bl *BacktestLogger) LogSummary(summary models.Summary, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"total_signals": summary.TotalSignals,
		"valid_signals": summary.ValidSignals,
		"closed_trades": summary.ClosedTrades,
		"win_rate":      summary.WinRate,
		"total_pnl_pct": summary.TotalPnLPct,
		"duration_ms":   duration.Milliseconds(),
	}).Info("Backtest batch completed")
}
