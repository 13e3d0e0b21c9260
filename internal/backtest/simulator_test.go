package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/signal-backtest/internal/models"
)

var issuedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bar(offset time.Duration, high, low, closePrice float64) models.Candle {
	return models.Candle{
		Symbol: "BTCUSDT",
		Time:   issuedAt.Add(offset),
		Open:   closePrice,
		High:   high,
		Low:    low,
		Close:  closePrice,
	}
}

func longSignal(entry float64, stops, targets []float64) models.Signal {
	return models.Signal{
		Symbol:      "BTCUSDT",
		Direction:   models.DirectionLong,
		Entries:     []float64{entry},
		StopLosses:  stops,
		TakeProfits: targets,
		IssuedAt:    issuedAt,
	}
}

func singleLeg(price float64) models.EntryPoint {
	return models.EntryPoint{Index: 1, Price: price, Weight: 1}
}

func TestSimulateEntryLongStopLoss(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(0, 101, 100, 100.5),
		bar(time.Hour, 102, 98, 99),
		bar(2*time.Hour, 99, 94, 95),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())

	require.True(t, result.Filled)
	assert.Equal(t, models.OutcomeStopLoss, result.Outcome)
	assert.InDelta(t, -5.0, result.PnLPct, 1e-9)
	assert.InDelta(t, -5.0, result.WeightedPnLPct, 1e-9)
	assert.InDelta(t, 120.0, result.HoldingMinutes, 1e-9)
	require.NotNil(t, result.ExitPrice)
	assert.Equal(t, 95.0, *result.ExitPrice)
	assert.Equal(t, issuedAt.Add(2*time.Hour), *result.ExitTime)
	require.NotNil(t, result.RiskReward)
	assert.InDelta(t, 2.0, *result.RiskReward, 1e-9)
}

func TestSimulateEntryShortOpen(t *testing.T) {
	sig := models.Signal{
		Symbol:      "ETHUSDT",
		Direction:   models.DirectionShort,
		Entries:     []float64{100},
		StopLosses:  []float64{105},
		TakeProfits: []float64{90},
		IssuedAt:    issuedAt,
	}
	candles := []models.Candle{
		bar(0, 100.5, 99, 100),
		bar(24*time.Hour, 104, 95, 97),
		bar(48*time.Hour, 103, 92, 98),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())

	require.True(t, result.Filled)
	assert.Equal(t, models.OutcomeOpen, result.Outcome)
	assert.Nil(t, result.ExitPrice)
	assert.Nil(t, result.ExitTime)
	assert.InDelta(t, 2.0, result.PnLPct, 1e-9)
	assert.InDelta(t, 48*60.0, result.HoldingMinutes, 1e-9)
}

func TestSimulateEntrySimultaneousExitFavoursStop(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(0, 101, 99, 100),
		bar(2*time.Hour, 111, 94, 100),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())
	assert.Equal(t, models.OutcomeStopLoss, result.Outcome)
}

func TestSimulateEntryEarlierTargetWins(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(0, 101, 99, 100),
		bar(90*time.Minute, 111, 100, 108),
		bar(3*time.Hour, 100, 94, 95),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())

	assert.Equal(t, models.OutcomeTakeProfit, result.Outcome)
	assert.InDelta(t, 10.0, result.PnLPct, 1e-9)
	assert.InDelta(t, 90.0, result.HoldingMinutes, 1e-9)
}

func TestSimulateEntryStopCooldown(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(0, 101, 94, 96),
		bar(30*time.Minute, 99, 94, 97),
		bar(3*time.Hour, 111, 99, 109),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())
	assert.Equal(t, models.OutcomeTakeProfit, result.Outcome)
}

func TestSimulateEntryTargetOnFillCandle(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(0, 111, 99, 110),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())

	assert.Equal(t, models.OutcomeTakeProfit, result.Outcome)
	assert.Equal(t, 0.0, result.HoldingMinutes)
}

func TestSimulateEntryBreakEven(t *testing.T) {
	sig := longSignal(100, []float64{99.95}, []float64{110})
	candles := []models.Candle{
		bar(0, 101, 99.99, 100),
		bar(2*time.Hour, 100.5, 99.9, 100),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())

	assert.Equal(t, models.OutcomeStoppedBE, result.Outcome)
	assert.InDelta(t, -0.05, result.PnLPct, 1e-9)
	require.NotNil(t, result.ExitPrice)
}

func TestSimulateEntryNoFill(t *testing.T) {
	sig := longSignal(90, []float64{85}, []float64{100})
	candles := []models.Candle{
		bar(0, 101, 95, 100),
		bar(time.Hour, 99, 91, 92),
	}

	result := SimulateEntry(sig, singleLeg(90), candles, DefaultConfig())

	assert.False(t, result.Filled)
	assert.Equal(t, models.OutcomeNoEntry, result.Outcome)
	assert.Nil(t, result.FillTime)
	assert.Nil(t, result.ExitTime)
	assert.Equal(t, 0.0, result.PnLPct)
}

func TestSimulateEntryIgnoresCandlesOutsideWindow(t *testing.T) {
	sig := longSignal(100, []float64{95}, []float64{110})
	candles := []models.Candle{
		bar(-time.Hour, 101, 90, 100),
		bar(73*time.Hour, 101, 90, 100),
	}

	result := SimulateEntry(sig, singleLeg(100), candles, DefaultConfig())
	assert.Equal(t, models.OutcomeNoEntry, result.Outcome)
}

func TestSimulateEntryDefaultLevels(t *testing.T) {
	tests := []struct {
		name       string
		direction  models.Direction
		stopLoss   float64
		takeProfit float64
	}{
		{"long", models.DirectionLong, 98, 103},
		{"short", models.DirectionShort, 102, 97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := models.Signal{Symbol: "BTCUSDT", Direction: tt.direction, Entries: []float64{100}, IssuedAt: issuedAt}
			result := SimulateEntry(sig, singleLeg(100), nil, DefaultConfig())

			assert.InDelta(t, tt.stopLoss, result.StopLoss, 1e-9)
			assert.InDelta(t, tt.takeProfit, result.TakeProfit, 1e-9)
			require.NotNil(t, result.RiskReward)
			assert.InDelta(t, 1.5, *result.RiskReward, 1e-9)
		})
	}
}

func TestSimulateEntryShortTakeProfit(t *testing.T) {
	sig := models.Signal{
		Symbol:      "SOLUSDT",
		Direction:   models.DirectionShort,
		Entries:     []float64{100},
		StopLosses:  []float64{105},
		TakeProfits: []float64{90},
		IssuedAt:    issuedAt,
	}
	candles := []models.Candle{
		bar(10*time.Minute, 100.2, 99.5, 100),
		bar(5*time.Hour, 96, 89, 90),
	}

	result := SimulateEntry(sig, models.EntryPoint{Index: 1, Price: 100, Weight: 0.5}, candles, DefaultConfig())

	assert.Equal(t, models.OutcomeTakeProfit, result.Outcome)
	assert.InDelta(t, 10.0, result.PnLPct, 1e-9)
	assert.InDelta(t, 5.0, result.WeightedPnLPct, 1e-9)
}

func TestRiskRewardZeroRisk(t *testing.T) {
	assert.Nil(t, riskReward(100, legLevels{stopLoss: 100, takeProfit: 110}, false))
}
