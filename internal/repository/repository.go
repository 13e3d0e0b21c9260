// Package repository implements PostgreSQL persistence for candles, results and summaries.
package repository

import (
	"fmt"

	"github.com/yourusername/signal-backtest/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Candle         CandleRepository
	BacktestResult BacktestResultRepository
	Summary        SummaryRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Candle:         NewPostgresCandleRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
		Summary:        NewPostgresSummaryRepository(db),
	}, nil
}
