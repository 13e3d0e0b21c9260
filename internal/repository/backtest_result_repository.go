package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/signal-backtest/internal/database"
	"github.com/yourusername/signal-backtest/internal/models"
)

const errScanBacktestResult = "failed to scan backtest result: %w"

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// Append upserts a backtest result keyed by its deterministic ID, so re-running a
// batch overwrites rather than duplicates.
func (r *PostgresBacktestResultRepository) Append(ctx context.Context, result *models.BacktestResult) error {
	query := `
		INSERT INTO backtest_results (
			id, row_index, symbol, direction, issued_at, status, error, outcome,
			filled_entries, weighted_pnl_pct, avg_fill_price, risk_reward,
			avg_holding_minutes, full_results, analyzed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			outcome = EXCLUDED.outcome,
			filled_entries = EXCLUDED.filled_entries,
			weighted_pnl_pct = EXCLUDED.weighted_pnl_pct,
			avg_fill_price = EXCLUDED.avg_fill_price,
			risk_reward = EXCLUDED.risk_reward,
			avg_holding_minutes = EXCLUDED.avg_holding_minutes,
			full_results = EXCLUDED.full_results,
			analyzed_at = EXCLUDED.analyzed_at
	`

	args, err := resultArgs(result)
	if err != nil {
		return err
	}

	if _, err := r.db.GetPool().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetByID retrieves a backtest result by ID
func (r *PostgresBacktestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	var raw []byte
	err := r.db.GetPool().QueryRow(ctx, `SELECT full_results FROM backtest_results WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf(errScanBacktestResult, err)
	}
	return decodeResult(raw)
}

// GetByIssuedRange retrieves results for signals issued within [start, end]
func (r *PostgresBacktestResultRepository) GetByIssuedRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error) {
	query := `
		SELECT full_results FROM backtest_results
		WHERE issued_at >= $1 AND issued_at <= $2
		ORDER BY issued_at ASC, row_index ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results by issue range: %w", err)
	}
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
		result, err := decodeResult(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// resultArgs flattens a result into the insert parameters. Error results have no
// issue time when the timestamp could not be parsed.
func resultArgs(result *models.BacktestResult) ([]interface{}, error) {
	full, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backtest result: %w", err)
	}

	var issuedAt *time.Time
	if !result.Signal.IssuedAt.IsZero() {
		t := result.Signal.IssuedAt
		issuedAt = &t
	}

	return []interface{}{
		result.ID, result.Signal.Row, result.Signal.Symbol, string(result.Signal.Direction), issuedAt,
		string(result.Status), result.Error, string(result.Outcome),
		result.FilledEntries, result.WeightedPnLPct, result.AvgFillPrice, result.RiskReward,
		result.AvgHoldingMinutes, full, result.AnalyzedAt,
	}, nil
}

func decodeResult(raw []byte) (*models.BacktestResult, error) {
	result := &models.BacktestResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("failed to decode backtest result: %w", err)
	}
	return result, nil
}
