package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/signal-backtest/internal/models"
)

// CandleRepository defines the interface for candle data access
type CandleRepository interface {
	GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
	InsertBatch(ctx context.Context, candles []models.Candle) error
}

// BacktestResultRepository defines the interface for backtest result persistence
type BacktestResultRepository interface {
	Append(ctx context.Context, result *models.BacktestResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error)
	GetByIssuedRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error)
}

// SummaryRepository defines the interface for batch summary persistence
type SummaryRepository interface {
	WriteSummary(ctx context.Context, summary models.Summary) error
	GetLatest(ctx context.Context) (*models.Summary, error)
}
