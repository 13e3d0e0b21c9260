package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a leg or a whole signal resolved
type Outcome string

const (
	OutcomeTakeProfit Outcome = "take_profit"
	OutcomeStopLoss   Outcome = "stop_loss"
	OutcomeStoppedBE  Outcome = "stopped_be"
	OutcomeOpen       Outcome = "open"
	OutcomeNoEntry    Outcome = "no_entry"
	OutcomeMixed      Outcome = "mixed"
)

// IsClosed reports whether the outcome is eligible for win-rate statistics
func (o Outcome) IsClosed() bool {
	return o == OutcomeTakeProfit || o == OutcomeStopLoss
}

// Status of a processed signal
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// EntryPoint is one weighted leg of a signal
type EntryPoint struct {
	Index  int     `json:"index"`
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
}

// EntryResult is the simulated outcome of one entry point
type EntryResult struct {
	Index          int        `json:"index"`
	EntryPrice     float64    `json:"entry_price"`
	Weight         float64    `json:"weight"`
	StopLoss       float64    `json:"stop_loss"`
	TakeProfit     float64    `json:"take_profit"`
	Filled         bool       `json:"filled"`
	FillTime       *time.Time `json:"fill_time,omitempty"`
	FillPrice      float64    `json:"fill_price,omitempty"`
	Outcome        Outcome    `json:"outcome"`
	ExitTime       *time.Time `json:"exit_time,omitempty"`
	ExitPrice      *float64   `json:"exit_price,omitempty"`
	PnLPct         float64    `json:"pnl_pct"`
	WeightedPnLPct float64    `json:"weighted_pnl_pct"`
	HoldingMinutes float64    `json:"holding_minutes"`
	RiskReward     *float64   `json:"risk_reward,omitempty"`
}

// BacktestResult is the blended outcome for a whole signal
type BacktestResult struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	Signal            Signal        `db:"-" json:"signal"`
	Entries           []EntryResult `db:"-" json:"entries"`
	FilledEntries     int           `db:"filled_entries" json:"filled_entries"`
	WeightedPnLPct    float64       `db:"weighted_pnl_pct" json:"weighted_pnl_pct"`
	AvgFillPrice      float64       `db:"avg_fill_price" json:"avg_fill_price"`
	RiskReward        *float64      `db:"risk_reward" json:"risk_reward,omitempty"`
	AvgHoldingMinutes float64       `db:"avg_holding_minutes" json:"avg_holding_minutes"`
	Outcome           Outcome       `db:"outcome" json:"outcome,omitempty"`
	Status            Status        `db:"status" json:"status"`
	Error             string        `db:"error" json:"error,omitempty"`
	AnalyzedAt        time.Time     `db:"analyzed_at" json:"analyzed_at"`
}

// IsClosedTrade reports whether the result counts toward win-rate statistics
func (r *BacktestResult) IsClosedTrade() bool {
	return r.Status == StatusSuccess && r.Outcome.IsClosed()
}

// Summary holds portfolio-level statistics over one batch
type Summary struct {
	TotalSignals      int       `db:"total_signals" json:"total_signals"`
	ValidSignals      int       `db:"valid_signals" json:"valid_signals"`
	ClosedTrades      int       `db:"closed_trades" json:"closed_trades"`
	WinningTrades     int       `db:"winning_trades" json:"winning_trades"`
	LosingTrades      int       `db:"losing_trades" json:"losing_trades"`
	WinRate           float64   `db:"win_rate" json:"win_rate"`
	AvgWinPnLPct      float64   `db:"avg_win_pnl_pct" json:"avg_win_pnl_pct"`
	AvgLossPnLPct     float64   `db:"avg_loss_pnl_pct" json:"avg_loss_pnl_pct"`
	TotalPnLPct       float64   `db:"total_pnl_pct" json:"total_pnl_pct"`
	AvgHoldingMinutes float64   `db:"avg_holding_minutes" json:"avg_holding_minutes"`
	GeneratedAt       time.Time `db:"generated_at" json:"generated_at"`
}
