package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/signal-backtest/internal/database"
	"github.com/yourusername/signal-backtest/internal/models"
)

// PostgresSummaryRepository implements SummaryRepository for PostgreSQL
type PostgresSummaryRepository struct {
	db *database.DB
}

// NewPostgresSummaryRepository creates a new summary repository
func NewPostgresSummaryRepository(db *database.DB) SummaryRepository {
	return &PostgresSummaryRepository{db: db}
}

// WriteSummary inserts a batch summary
func (s *PostgresSummaryRepository) WriteSummary(ctx context.Context, summary models.Summary) error {
	query := `
		INSERT INTO backtest_summaries (
			total_signals, valid_signals, closed_trades, winning_trades, losing_trades,
			win_rate, avg_win_pnl_pct, avg_loss_pnl_pct, total_pnl_pct, avg_holding_minutes, generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`

	_, err := s.db.GetPool().Exec(ctx, query,
		summary.TotalSignals, summary.ValidSignals, summary.ClosedTrades, summary.WinningTrades, summary.LosingTrades,
		summary.WinRate, summary.AvgWinPnLPct, summary.AvgLossPnLPct, summary.TotalPnLPct, summary.AvgHoldingMinutes,
		summary.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recently generated summary
func (s *PostgresSummaryRepository) GetLatest(ctx context.Context) (*models.Summary, error) {
	query := `
		SELECT total_signals, valid_signals, closed_trades, winning_trades, losing_trades,
			win_rate, avg_win_pnl_pct, avg_loss_pnl_pct, total_pnl_pct, avg_holding_minutes, generated_at
		FROM backtest_summaries ORDER BY generated_at DESC LIMIT 1
	`

	summary := &models.Summary{}
	err := s.db.GetPool().QueryRow(ctx, query).Scan(
		&summary.TotalSignals, &summary.ValidSignals, &summary.ClosedTrades, &summary.WinningTrades, &summary.LosingTrades,
		&summary.WinRate, &summary.AvgWinPnLPct, &summary.AvgLossPnLPct, &summary.TotalPnLPct, &summary.AvgHoldingMinutes,
		&summary.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan summary: %w", err)
	}
	return summary, nil
}
