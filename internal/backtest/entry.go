package backtest

import "github.com/yourusername/signal-backtest/internal/models"

// threeLegWeights is the fixed split used whenever a signal has exactly three entries
var threeLegWeights = [3]float64{0.3, 0.3, 0.4}

// EntryWeights returns the weight of each of n legs. Weights always sum to 1.
func EntryWeights(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{1}
	case n == 2:
		return []float64{0.5, 0.5}
	case n == 3:
		return []float64{threeLegWeights[0], threeLegWeights[1], threeLegWeights[2]}
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return weights
}

// BuildEntryPoints derives the weighted legs of a signal in entry order
func BuildEntryPoints(sig models.Signal) []models.EntryPoint {
	weights := EntryWeights(len(sig.Entries))
	points := make([]models.EntryPoint, len(sig.Entries))
	for i, price := range sig.Entries {
		points[i] = models.EntryPoint{
			Index:  i + 1,
			Price:  price,
			Weight: weights[i],
		}
	}
	return points
}
