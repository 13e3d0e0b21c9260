package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/signal-backtest/internal/config"
)

// schemaStatements create the tables used by the candle and result repositories
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		time   TIMESTAMPTZ NOT NULL,
		open   DOUBLE PRECISION NOT NULL,
		high   DOUBLE PRECISION NOT NULL,
		low    DOUBLE PRECISION NOT NULL,
		close  DOUBLE PRECISION NOT NULL,
		volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, time)
	)`,
	`CREATE TABLE IF NOT EXISTS backtest_results (
		id                  UUID PRIMARY KEY,
		row_index           INTEGER NOT NULL,
		symbol              TEXT NOT NULL,
		direction           TEXT NOT NULL,
		issued_at           TIMESTAMPTZ,
		status              TEXT NOT NULL,
		error               TEXT NOT NULL DEFAULT '',
		outcome             TEXT NOT NULL DEFAULT '',
		filled_entries      INTEGER NOT NULL DEFAULT 0,
		weighted_pnl_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_fill_price      DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_reward         DOUBLE PRECISION,
		avg_holding_minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
		full_results        JSONB NOT NULL,
		analyzed_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS backtest_results_issued_at_idx ON backtest_results (issued_at)`,
	`CREATE TABLE IF NOT EXISTS backtest_summaries (
		id                   BIGSERIAL PRIMARY KEY,
		total_signals        INTEGER NOT NULL,
		valid_signals        INTEGER NOT NULL,
		closed_trades        INTEGER NOT NULL,
		winning_trades       INTEGER NOT NULL,
		losing_trades        INTEGER NOT NULL,
		win_rate             DOUBLE PRECISION NOT NULL,
		avg_win_pnl_pct      DOUBLE PRECISION NOT NULL,
		avg_loss_pnl_pct     DOUBLE PRECISION NOT NULL,
		total_pnl_pct        DOUBLE PRECISION NOT NULL,
		avg_holding_minutes  DOUBLE PRECISION NOT NULL,
		generated_at         TIMESTAMPTZ NOT NULL
	)`,
}

// Initialize creates a database connection pool and makes sure the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates any missing tables in a single transaction
func (db *DB) EnsureSchema(ctx context.Context) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
