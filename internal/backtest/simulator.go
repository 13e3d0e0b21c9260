package backtest

import (
	"math"
	"time"

	"github.com/yourusername/signal-backtest/internal/models"
)

// legLevels are the resolved protective and target prices for one leg
type legLevels struct {
	stopLoss   float64
	takeProfit float64
}

// resolveLevels picks the signal's stop and target, synthesizing defaults from the entry price
func resolveLevels(sig models.Signal, entry float64, cfg BacktestConfig) legLevels {
	short := sig.Direction.IsShort()
	levels := legLevels{}

	if sl, ok := sig.StopLoss(); ok {
		levels.stopLoss = sl
	} else if short {
		levels.stopLoss = entry * (1 + cfg.DefaultStopPct/100)
	} else {
		levels.stopLoss = entry * (1 - cfg.DefaultStopPct/100)
	}

	if tp, ok := sig.TakeProfit(); ok {
		levels.takeProfit = tp
	} else if short {
		levels.takeProfit = entry * (1 - cfg.DefaultTakeProfitPct/100)
	} else {
		levels.takeProfit = entry * (1 + cfg.DefaultTakeProfitPct/100)
	}
	return levels
}

// SimulateEntry scans candles from the signal's issue time for the leg's fill and
// subsequent exit. Candles must be sorted ascending by time.
func SimulateEntry(sig models.Signal, entry models.EntryPoint, candles []models.Candle, cfg BacktestConfig) models.EntryResult {
	short := sig.Direction.IsShort()
	levels := resolveLevels(sig, entry.Price, cfg)

	result := models.EntryResult{
		Index:      entry.Index,
		EntryPrice: entry.Price,
		Weight:     entry.Weight,
		StopLoss:   levels.stopLoss,
		TakeProfit: levels.takeProfit,
		Outcome:    models.OutcomeNoEntry,
		RiskReward: riskReward(entry.Price, levels, short),
	}

	window := windowCandles(candles, sig.IssuedAt, sig.IssuedAt.Add(cfg.Lookahead))
	fillIdx := firstIndex(window, 0, func(c models.Candle) bool {
		if short {
			return c.High >= entry.Price
		}
		return c.Low <= entry.Price
	})
	if fillIdx < 0 {
		return result
	}

	fillTime := window[fillIdx].Time
	result.Filled = true
	result.FillTime = &fillTime
	result.FillPrice = entry.Price

	stopFrom := firstIndex(window, fillIdx, func(c models.Candle) bool {
		return !c.Time.Before(fillTime.Add(cfg.StopCooldown))
	})
	stopIdx := -1
	if stopFrom >= 0 {
		stopIdx = firstIndex(window, stopFrom, func(c models.Candle) bool {
			if short {
				return c.High >= levels.stopLoss
			}
			return c.Low <= levels.stopLoss
		})
	}
	targetIdx := firstIndex(window, fillIdx, func(c models.Candle) bool {
		if short {
			return c.Low <= levels.takeProfit
		}
		return c.High >= levels.takeProfit
	})

	var exitPrice float64
	var exitTime time.Time
	switch {
	case stopIdx >= 0 && (targetIdx < 0 || !window[targetIdx].Time.Before(window[stopIdx].Time)):
		result.Outcome = models.OutcomeStopLoss
		exitPrice = levels.stopLoss
		exitTime = window[stopIdx].Time
	case targetIdx >= 0:
		result.Outcome = models.OutcomeTakeProfit
		exitPrice = levels.takeProfit
		exitTime = window[targetIdx].Time
	default:
		mark := window[len(window)-1]
		result.Outcome = models.OutcomeOpen
		result.PnLPct = pnlPct(entry.Price, mark.Close, short)
		result.WeightedPnLPct = result.PnLPct * entry.Weight
		result.HoldingMinutes = mark.Time.Sub(fillTime).Minutes()
		return result
	}

	if math.Abs(exitPrice-entry.Price)/entry.Price*100 <= cfg.BreakEvenPct {
		result.Outcome = models.OutcomeStoppedBE
	}
	result.ExitTime = &exitTime
	result.ExitPrice = &exitPrice
	result.PnLPct = pnlPct(entry.Price, exitPrice, short)
	result.WeightedPnLPct = result.PnLPct * entry.Weight
	result.HoldingMinutes = exitTime.Sub(fillTime).Minutes()
	return result
}

// windowCandles returns the sub-slice of candles inside [start, end]
func windowCandles(candles []models.Candle, start, end time.Time) []models.Candle {
	from := 0
	for from < len(candles) && candles[from].Time.Before(start) {
		from++
	}
	to := from
	for to < len(candles) && !candles[to].Time.After(end) {
		to++
	}
	return candles[from:to]
}

// firstIndex returns the index of the first candle at or after from matching fn, or -1
func firstIndex(candles []models.Candle, from int, fn func(models.Candle) bool) int {
	for i := from; i < len(candles); i++ {
		if fn(candles[i]) {
			return i
		}
	}
	return -1
}

func pnlPct(entry, exit float64, short bool) float64 {
	if entry == 0 {
		return 0
	}
	if short {
		return (entry - exit) / entry * 100
	}
	return (exit - entry) / entry * 100
}

// riskReward is the distance to target over the distance to stop, nil when the stop sits on the entry
func riskReward(entry float64, levels legLevels, short bool) *float64 {
	reward := levels.takeProfit - entry
	risk := entry - levels.stopLoss
	if short {
		reward = entry - levels.takeProfit
		risk = levels.stopLoss - entry
	}
	if math.Abs(risk) < 1e-12 {
		return nil
	}
	ratio := math.Abs(reward) / math.Abs(risk)
	return &ratio
}
