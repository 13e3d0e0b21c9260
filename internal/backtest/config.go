package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/signal-backtest/internal/config"
)

// BacktestConfig holds the simulation rules applied to every signal
type BacktestConfig struct {
	Lookahead            time.Duration
	StopCooldown         time.Duration
	BreakEvenPct         float64
	DefaultStopPct       float64
	DefaultTakeProfitPct float64
}

// DefaultConfig returns the standard three-day, one-hour-cooldown rules
func DefaultConfig() BacktestConfig {
	return BacktestConfig{
		Lookahead:            72 * time.Hour,
		StopCooldown:         time.Hour,
		BreakEvenPct:         0.1,
		DefaultStopPct:       2,
		DefaultTakeProfitPct: 3,
	}
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}

	bt := BacktestConfig{
		Lookahead:            time.Duration(cfg.LookaheadHours) * time.Hour,
		StopCooldown:         time.Duration(cfg.StopCooldownMinutes) * time.Minute,
		BreakEvenPct:         cfg.BreakEvenPct,
		DefaultStopPct:       cfg.DefaultStopPct,
		DefaultTakeProfitPct: cfg.DefaultTakeProfitPct,
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if b.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive")
	}
	if b.StopCooldown < 0 {
		return fmt.Errorf("stop cooldown cannot be negative")
	}
	if b.StopCooldown >= b.Lookahead {
		return fmt.Errorf("stop cooldown must be shorter than lookahead")
	}
	if b.BreakEvenPct < 0 || b.BreakEvenPct >= 100 {
		return fmt.Errorf("break-even threshold must be between 0 and 100")
	}
	if b.DefaultStopPct <= 0 || b.DefaultStopPct >= 100 {
		return fmt.Errorf("default stop percent must be between 0 and 100")
	}
	if b.DefaultTakeProfitPct <= 0 {
		return fmt.Errorf("default take-profit percent must be positive")
	}
	return nil
}
