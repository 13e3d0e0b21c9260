package backtest

import "github.com/yourusername/signal-backtest/internal/models"

// AggregatedResult represents the blended outcome of all legs of a signal
type AggregatedResult struct {
	FilledEntries     int            `json:"filled_entries"`
	WeightedPnLPct    float64        `json:"weighted_pnl_pct"`
	AvgFillPrice      float64        `json:"avg_fill_price"`
	RiskReward        *float64       `json:"risk_reward,omitempty"`
	AvgHoldingMinutes float64        `json:"avg_holding_minutes"`
	Outcome           models.Outcome `json:"outcome"`
}

// AggregateEntries blends per-leg results. Legs that never filled are left out of
// every weighted denominator.
func AggregateEntries(legs []models.EntryResult) AggregatedResult {
	agg := AggregatedResult{
		Outcome:    classifyOutcome(legs),
		RiskReward: blendRiskReward(legs),
	}

	filledWeight := 0.0
	weightedPnL := 0.0
	weightedFill := 0.0
	holding := 0.0
	for _, leg := range legs {
		if !leg.Filled {
			continue
		}
		agg.FilledEntries++
		filledWeight += leg.Weight
		weightedPnL += leg.WeightedPnLPct
		weightedFill += leg.FillPrice * leg.Weight
		holding += leg.HoldingMinutes
	}

	if agg.FilledEntries == 0 || filledWeight == 0 {
		return agg
	}
	agg.WeightedPnLPct = weightedPnL / filledWeight
	agg.AvgFillPrice = weightedFill / filledWeight
	agg.AvgHoldingMinutes = holding / float64(agg.FilledEntries)
	return agg
}

// classifyOutcome returns the shared outcome of the filled legs, or mixed when they disagree
func classifyOutcome(legs []models.EntryResult) models.Outcome {
	var shared models.Outcome
	for _, leg := range legs {
		if !leg.Filled {
			continue
		}
		if shared == "" {
			shared = leg.Outcome
			continue
		}
		if leg.Outcome != shared {
			return models.OutcomeMixed
		}
	}
	if shared == "" {
		return models.OutcomeNoEntry
	}
	return shared
}

// blendRiskReward uses the fixed 0.3/0.3/0.4 split for three legs and the
// weight-weighted mean of the legs with a ratio otherwise.
func blendRiskReward(legs []models.EntryResult) *float64 {
	if len(legs) == 3 {
		blended := 0.0
		found := false
		for i, leg := range legs {
			if leg.RiskReward == nil {
				continue
			}
			found = true
			blended += threeLegWeights[i] * *leg.RiskReward
		}
		if !found {
			return nil
		}
		return &blended
	}

	sum := 0.0
	weights := 0.0
	for _, leg := range legs {
		if leg.RiskReward == nil {
			continue
		}
		sum += *leg.RiskReward * leg.Weight
		weights += leg.Weight
	}
	if weights == 0 {
		return nil
	}
	blended := sum / weights
	return &blended
}
