package backtest

import (
	"time"

	"github.com/yourusername/signal-backtest/internal/models"
)

// CalculateSummary computes batch statistics. Only closed trades (success with a
// take-profit or stop-loss outcome) feed the win rate and P&L averages.
func CalculateSummary(results []*models.BacktestResult, generatedAt time.Time) models.Summary {
	summary := models.Summary{
		TotalSignals: len(results),
		GeneratedAt:  generatedAt,
	}

	winSum := 0.0
	lossSum := 0.0
	holding := 0.0
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Status == models.StatusSuccess {
			summary.ValidSignals++
		}
		if !result.IsClosedTrade() {
			continue
		}

		summary.ClosedTrades++
		summary.TotalPnLPct += result.WeightedPnLPct
		holding += result.AvgHoldingMinutes
		if result.WeightedPnLPct > 0 {
			summary.WinningTrades++
			winSum += result.WeightedPnLPct
		} else if result.WeightedPnLPct < 0 {
			summary.LosingTrades++
			lossSum += result.WeightedPnLPct
		}
	}

	if summary.ClosedTrades == 0 {
		return summary
	}
	summary.WinRate = float64(summary.WinningTrades) / float64(summary.ClosedTrades)
	summary.AvgHoldingMinutes = holding / float64(summary.ClosedTrades)
	if summary.WinningTrades > 0 {
		summary.AvgWinPnLPct = winSum / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		summary.AvgLossPnLPct = lossSum / float64(summary.LosingTrades)
	}
	return summary
}
