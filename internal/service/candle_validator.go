package service

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/models"
)

// CandleValidator checks candles before they are stored
type CandleValidator struct {
	logger *logrus.Entry
}

// NewCandleValidator creates a new candle validator
func NewCandleValidator(log *logrus.Logger) *CandleValidator {
	if log == nil {
		log = logrus.New()
	}
	return &CandleValidator{logger: log.WithField("component", "candle_validator")}
}

// ValidateCandle returns every rule the candle breaks
func (v *CandleValidator) ValidateCandle(candle models.Candle) []string {
	var errors []string

	if candle.Symbol == "" {
		errors = append(errors, "symbol is required")
	}
	if candle.Time.IsZero() {
		errors = append(errors, "time is required")
	}

	for name, price := range map[string]float64{"open": candle.Open, "high": candle.High, "low": candle.Low, "close": candle.Close} {
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			errors = append(errors, fmt.Sprintf("%s must be a positive number, got %v", name, price))
		}
	}

	if candle.High < math.Max(candle.Open, candle.Close) {
		errors = append(errors, fmt.Sprintf("high %v below open/close", candle.High))
	}
	if candle.Low > math.Min(candle.Open, candle.Close) {
		errors = append(errors, fmt.Sprintf("low %v above open/close", candle.Low))
	}
	if candle.Volume < 0 {
		errors = append(errors, "volume cannot be negative")
	}

	return errors
}

// FilterValid drops invalid candles and any whose timestamp is already in existing
// or repeated within the batch. It returns the kept candles and the rejected count.
func (v *CandleValidator) FilterValid(candles []models.Candle, existing []models.Candle) ([]models.Candle, int) {
	seen := make(map[time.Time]struct{}, len(existing)+len(candles))
	for _, candle := range existing {
		seen[candle.Time.UTC()] = struct{}{}
	}

	kept := make([]models.Candle, 0, len(candles))
	rejected := 0
	for _, candle := range candles {
		if problems := v.ValidateCandle(candle); len(problems) > 0 {
			v.logger.WithFields(logrus.Fields{
				"symbol": candle.Symbol,
				"time":   candle.Time,
				"errors": problems,
			}).Debug("Rejected candle")
			rejected++
			continue
		}

		key := candle.Time.UTC()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, candle)
	}
	return kept, rejected
}
