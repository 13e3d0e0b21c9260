package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/signal-backtest/internal/database"
	"github.com/yourusername/signal-backtest/internal/models"
)

// PostgresCandleRepository implements CandleRepository for PostgreSQL
type PostgresCandleRepository struct {
	db *database.DB
}

// NewPostgresCandleRepository creates a new candle repository
func NewPostgresCandleRepository(db *database.DB) CandleRepository {
	return &PostgresCandleRepository{db: db}
}

// GetCandles retrieves candles for a symbol within [start, end], oldest first
func (c *PostgresCandleRepository) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	query := `
		SELECT symbol, time, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC
	`

	rows, err := c.db.GetPool().Query(ctx, query, strings.ToUpper(symbol), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var candle models.Candle
		if err := rows.Scan(
			&candle.Symbol, &candle.Time, &candle.Open, &candle.High,
			&candle.Low, &candle.Close, &candle.Volume,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candle.Time = candle.Time.UTC()
		candles = append(candles, candle)
	}

	return candles, rows.Err()
}

// InsertBatch inserts multiple candles using COPY
func (c *PostgresCandleRepository) InsertBatch(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	columns := []string{"symbol", "time", "open", "high", "low", "close", "volume"}

	copyFromSource := make([][]interface{}, len(candles))
	for i, candle := range candles {
		copyFromSource[i] = []interface{}{
			strings.ToUpper(candle.Symbol), candle.Time, candle.Open, candle.High,
			candle.Low, candle.Close, candle.Volume,
		}
	}

	count, err := c.db.GetPool().CopyFrom(ctx, pgx.Identifier{"candles"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert candles: %w", err)
	}

	if count != int64(len(candles)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(candles))
	}

	return nil
}
