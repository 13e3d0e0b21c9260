package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/signal-backtest/internal/models"
)

func TestCalculateSummary(t *testing.T) {
	results := []*models.BacktestResult{
		{Status: models.StatusSuccess, Outcome: models.OutcomeTakeProfit, WeightedPnLPct: 6, AvgHoldingMinutes: 100},
		{Status: models.StatusSuccess, Outcome: models.OutcomeTakeProfit, WeightedPnLPct: 4, AvgHoldingMinutes: 200},
		{Status: models.StatusSuccess, Outcome: models.OutcomeStopLoss, WeightedPnLPct: -3, AvgHoldingMinutes: 300},
		{Status: models.StatusSuccess, Outcome: models.OutcomeOpen, WeightedPnLPct: 20},
		{Status: models.StatusSuccess, Outcome: models.OutcomeMixed, WeightedPnLPct: -7},
		{Status: models.StatusSuccess, Outcome: models.OutcomeNoEntry},
		{Status: models.StatusError, Error: "no market data"},
	}
	generated := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	summary := CalculateSummary(results, generated)

	assert.Equal(t, 7, summary.TotalSignals)
	assert.Equal(t, 6, summary.ValidSignals)
	assert.Equal(t, 3, summary.ClosedTrades)
	assert.Equal(t, 2, summary.WinningTrades)
	assert.Equal(t, 1, summary.LosingTrades)
	assert.InDelta(t, 2.0/3.0, summary.WinRate, 1e-9)
	assert.InDelta(t, 5.0, summary.AvgWinPnLPct, 1e-9)
	assert.InDelta(t, -3.0, summary.AvgLossPnLPct, 1e-9)
	assert.InDelta(t, 7.0, summary.TotalPnLPct, 1e-9)
	assert.InDelta(t, 200.0, summary.AvgHoldingMinutes, 1e-9)
	assert.Equal(t, generated, summary.GeneratedAt)
}

func TestCalculateSummaryAllErrors(t *testing.T) {
	results := []*models.BacktestResult{
		{Status: models.StatusError, Error: "invalid signal"},
		{Status: models.StatusError, Error: "no market data"},
	}

	summary := CalculateSummary(results, time.Time{})

	assert.Equal(t, 2, summary.TotalSignals)
	assert.Equal(t, 0, summary.ValidSignals)
	assert.Equal(t, 0, summary.ClosedTrades)
	assert.Equal(t, 0.0, summary.WinRate)
}
