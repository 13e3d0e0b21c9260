package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/signal-backtest/internal/backtest"
	"github.com/yourusername/signal-backtest/internal/config"
	"github.com/yourusername/signal-backtest/internal/models"
)

type memoryResultRepo struct {
	results []*models.BacktestResult
}

func (m *memoryResultRepo) Append(ctx context.Context, result *models.BacktestResult) error {
	m.results = append(m.results, result)
	return nil
}

func (m *memoryResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	for _, r := range m.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryResultRepo) GetByIssuedRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error) {
	var out []*models.BacktestResult
	for _, r := range m.results {
		issued := r.Signal.IssuedAt
		if issued.IsZero() || issued.Before(start) || issued.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type memorySummaryRepo struct {
	memorySummaries
}

func (m *memorySummaryRepo) GetLatest(ctx context.Context) (*models.Summary, error) {
	if len(m.written) == 0 {
		return nil, models.ErrNotFound
	}
	latest := m.written[len(m.written)-1]
	return &latest, nil
}

func TestResultQueryOverStoredBatch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Output.Format = config.FormatPostgres
	writeSignals(t, cfg.Input.Path)

	results := &memoryResultRepo{}
	summaries := &memorySummaryRepo{}
	svc, err := NewBacktestService(cfg, &stubProvider{candles: btcCandles()}, results,
		[]backtest.SummarySink{summaries}, quietLogger())
	require.NoError(t, err)

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, results.results, 2)

	query, err := NewResultQuery(results, summaries)
	require.NoError(t, err)
	ctx := context.Background()

	latest, err := query.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, *latest)

	generated := t0.Add(24 * time.Hour)
	summary, err := query.Summarize(ctx, t0.Add(-time.Hour), t0.Add(time.Hour), generated)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSignals)
	assert.Equal(t, 1, summary.ClosedTrades)
	assert.Equal(t, 1, summary.WinningTrades)
	assert.Equal(t, generated, summary.GeneratedAt)

	empty, err := query.Summarize(ctx, t0.Add(time.Hour), t0.Add(2*time.Hour), generated)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSignals)

	_, err = query.Summarize(ctx, t0.Add(time.Hour), t0, generated)
	assert.Error(t, err)

	stored, err := query.Result(ctx, report.Results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeTakeProfit, stored.Outcome)

	_, err = query.Result(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResultQueryLatestEmpty(t *testing.T) {
	query, err := NewResultQuery(&memoryResultRepo{}, &memorySummaryRepo{})
	require.NoError(t, err)

	_, err = query.Latest(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = NewResultQuery(nil, &memorySummaryRepo{})
	assert.Error(t, err)
}
