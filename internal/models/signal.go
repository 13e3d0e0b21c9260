package models

import "time"

// Direction is the side of a trading call
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// IsShort reports whether the direction is short
func (d Direction) IsShort() bool {
	return d == DirectionShort
}

// Signal represents one normalized trading call to evaluate
type Signal struct {
	Row         int       `json:"row"`
	Symbol      string    `json:"symbol" validate:"required"`
	Direction   Direction `json:"direction" validate:"required,oneof=long short"`
	Entries     []float64 `json:"entries" validate:"required,min=1,dive,gt=0"`
	StopLosses  []float64 `json:"stop_losses" validate:"dive,gt=0"`
	TakeProfits []float64 `json:"take_profits" validate:"dive,gt=0"`
	IssuedAt    time.Time `json:"issued_at"`
}

// StopLoss returns the protective level shared by every leg, if any
func (s Signal) StopLoss() (float64, bool) {
	if len(s.StopLosses) == 0 {
		return 0, false
	}
	return s.StopLosses[0], true
}

// TakeProfit returns the first target level, if any
func (s Signal) TakeProfit() (float64, bool) {
	if len(s.TakeProfits) == 0 {
		return 0, false
	}
	return s.TakeProfits[0], true
}
