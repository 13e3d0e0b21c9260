package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/marketdata"
	"github.com/yourusername/signal-backtest/internal/models"
)

// CandleWriter is the store candles are ingested into
type CandleWriter interface {
	GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
	InsertBatch(ctx context.Context, candles []models.Candle) error
}

// IngestionStats counts what one ingestion run did
type IngestionStats struct {
	Symbols  int
	Fetched  int
	Inserted int
	Rejected int
	Errors   int
	Duration time.Duration
}

func (s IngestionStats) String() string {
	return fmt.Sprintf("symbols=%d fetched=%d inserted=%d rejected=%d errors=%d duration=%s",
		s.Symbols, s.Fetched, s.Inserted, s.Rejected, s.Errors, s.Duration)
}

// CandleIngestionService copies candles from a provider into the candle store so later
// batches can run against the postgres provider
type CandleIngestionService struct {
	source    marketdata.Provider
	store     CandleWriter
	validator *CandleValidator
	logger    *logrus.Entry
	chunk     time.Duration
}

// NewCandleIngestionService creates a new ingestion service. Windows are fetched in
// chunks of chunk length, one day when chunk is not positive.
func NewCandleIngestionService(source marketdata.Provider, store CandleWriter, chunk time.Duration, log *logrus.Logger) *CandleIngestionService {
	if log == nil {
		log = logrus.New()
	}
	if chunk <= 0 {
		chunk = 24 * time.Hour
	}
	return &CandleIngestionService{
		source:    source,
		store:     store,
		validator: NewCandleValidator(log),
		logger:    log.WithField("component", "ingestion"),
		chunk:     chunk,
	}
}

// Ingest fetches [start, end] for every symbol and stores the candles not already present.
// A failing symbol is logged and counted, and the run moves on to the next one.
func (s *CandleIngestionService) Ingest(ctx context.Context, symbols []string, start, end time.Time) (IngestionStats, error) {
	started := time.Now()
	stats := IngestionStats{}

	if !end.After(start) {
		return stats, fmt.Errorf("end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	for _, raw := range symbols {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		symbol := marketdata.NormalizeSymbol(raw)
		stats.Symbols++
		if err := s.ingestSymbol(ctx, symbol, start, end, &stats); err != nil {
			stats.Errors++
			s.logger.WithError(err).WithField("symbol", symbol).Error("Candle ingestion failed")
		}
	}

	stats.Duration = time.Since(started)
	s.logger.WithFields(logrus.Fields{
		"symbols":  stats.Symbols,
		"fetched":  stats.Fetched,
		"inserted": stats.Inserted,
		"rejected": stats.Rejected,
		"errors":   stats.Errors,
	}).Info("Candle ingestion completed")
	return stats, nil
}

func (s *CandleIngestionService) ingestSymbol(ctx context.Context, symbol string, start, end time.Time, stats *IngestionStats) error {
	for from := start; from.Before(end); from = from.Add(s.chunk) {
		to := from.Add(s.chunk)
		if to.After(end) {
			to = end
		}

		fetched, err := s.source.GetCandles(ctx, symbol, from, to)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", from.Format(time.RFC3339), err)
		}
		stats.Fetched += len(fetched)
		if len(fetched) == 0 {
			continue
		}

		existing, err := s.store.GetCandles(ctx, symbol, from, to)
		if err != nil {
			return fmt.Errorf("failed to read stored candles: %w", err)
		}

		for i := range fetched {
			fetched[i].Symbol = symbol
		}
		fresh, rejected := s.validator.FilterValid(fetched, existing)
		stats.Rejected += rejected

		if err := s.store.InsertBatch(ctx, fresh); err != nil {
			return err
		}
		stats.Inserted += len(fresh)
	}
	return nil
}
