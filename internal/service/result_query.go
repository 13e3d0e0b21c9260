package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/signal-backtest/internal/backtest"
	"github.com/yourusername/signal-backtest/internal/models"
	"github.com/yourusername/signal-backtest/internal/repository"
)

// ResultQuery reads persisted results and summaries back out of the database
type ResultQuery struct {
	results   repository.BacktestResultRepository
	summaries repository.SummaryRepository
}

// NewResultQuery creates a query over the result and summary repositories
func NewResultQuery(results repository.BacktestResultRepository, summaries repository.SummaryRepository) (*ResultQuery, error) {
	if results == nil || summaries == nil {
		return nil, fmt.Errorf("result and summary repositories are required")
	}
	return &ResultQuery{results: results, summaries: summaries}, nil
}

// Summarize recomputes a summary over results for signals issued within [start, end].
// Rows whose timestamp never parsed have no issue time and are not counted.
func (q *ResultQuery) Summarize(ctx context.Context, start, end, generatedAt time.Time) (models.Summary, error) {
	if end.Before(start) {
		return models.Summary{}, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	results, err := q.results.GetByIssuedRange(ctx, start, end)
	if err != nil {
		return models.Summary{}, err
	}
	return backtest.CalculateSummary(results, generatedAt), nil
}

// Latest returns the summary written by the most recent batch
func (q *ResultQuery) Latest(ctx context.Context) (*models.Summary, error) {
	return q.summaries.GetLatest(ctx)
}

// Result returns one stored result by its deterministic ID
func (q *ResultQuery) Result(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	return q.results.GetByID(ctx, id)
}
