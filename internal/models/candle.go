package models

import "time"

// Candle represents one OHLC bar for a symbol
type Candle struct {
	Symbol string    `db:"symbol" json:"symbol"`
	Time   time.Time `db:"time" json:"time"`
	Open   float64   `db:"open" json:"open"`
	High   float64   `db:"high" json:"high"`
	Low    float64   `db:"low" json:"low"`
	Close  float64   `db:"close" json:"close"`
	Volume float64   `db:"volume" json:"volume"`
}
