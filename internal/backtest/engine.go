package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/logger"
	"github.com/yourusername/signal-backtest/internal/metrics"
	"github.com/yourusername/signal-backtest/internal/models"
	"github.com/yourusername/signal-backtest/internal/signal"
)

// resultNamespace seeds deterministic result IDs
var resultNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("signal-backtest/result"))

// CandleProvider returns candles for a symbol sorted ascending and restricted to [start, end]
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
}

// ResultSink persists each result as soon as it is produced
type ResultSink interface {
	Append(ctx context.Context, result *models.BacktestResult) error
}

// SummarySink persists the batch summary
type SummarySink interface {
	WriteSummary(ctx context.Context, summary models.Summary) error
}

// BatchReport is the outcome of one batch run
type BatchReport struct {
	Results  []*models.BacktestResult
	Summary  models.Summary
	Duration time.Duration
}

// Engine evaluates signals one at a time against historical candles
type Engine struct {
	config     BacktestConfig
	normalizer *signal.Normalizer
	provider   CandleProvider
	sink       ResultSink
	logger     *logrus.Logger
	btLogger   *logger.BacktestLogger
	now        func() time.Time
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg BacktestConfig, normalizer *signal.Normalizer, provider CandleProvider, sink ResultSink, log *logrus.Logger) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("candle provider is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("result sink is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if normalizer == nil {
		normalizer = signal.NewNormalizer(nil, time.UTC)
	}
	if log == nil {
		log = logrus.New()
	}

	return &Engine{
		config:     cfg,
		normalizer: normalizer,
		provider:   provider,
		sink:       sink,
		logger:     log,
		btLogger:   logger.NewBacktestLogger(log),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run normalizes, simulates and persists every record in order, then summarizes the
// batch. A failing signal becomes an error result; only a sink failure stops the run.
func (e *Engine) Run(ctx context.Context, records []signal.RawRecord) (*BatchReport, error) {
	started := time.Now()
	e.logger.WithField("signals", len(records)).Info("Starting backtest batch")

	report := &BatchReport{Results: make([]*models.BacktestResult, 0, len(records))}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := e.ProcessRecord(ctx, record)
		if err := e.sink.Append(ctx, result); err != nil {
			return report, fmt.Errorf("failed to persist result for row %d: %w", record.Row, err)
		}
		report.Results = append(report.Results, result)
	}

	report.Summary = CalculateSummary(report.Results, e.now())
	report.Duration = time.Since(started)

	metrics.RecordBatch(report.Duration.Seconds(), report.Summary.WinRate, report.Summary.ClosedTrades)
	e.btLogger.LogSummary(report.Summary, report.Duration)
	return report, nil
}

// ProcessRecord takes one raw record through normalization and simulation. It never
// fails: every error is folded into an error result.
func (e *Engine) ProcessRecord(ctx context.Context, record signal.RawRecord) (result *models.BacktestResult) {
	started := time.Now()
	var sig models.Signal

	defer func() {
		if r := recover(); r != nil {
			result = e.errorResult(sig, fmt.Errorf("%w: %v", models.ErrComputation, r))
		}
		metrics.RecordSignal(result.Status, result.Outcome, time.Since(started).Seconds())
		if result.Status == models.StatusError {
			e.btLogger.LogSignalError(sig, result.Error)
			return
		}
		e.btLogger.LogSignalResult(result)
	}()

	sig, err := e.normalizer.Normalize(record)
	if err != nil {
		return e.errorResult(sig, err)
	}
	result, err = e.BacktestSignal(ctx, sig)
	if err != nil {
		return e.errorResult(sig, err)
	}
	return result
}

// BacktestSignal evaluates one normalized signal against its lookahead window
func (e *Engine) BacktestSignal(ctx context.Context, sig models.Signal) (*models.BacktestResult, error) {
	end := sig.IssuedAt.Add(e.config.Lookahead)
	candles, err := e.provider.GetCandles(ctx, sig.Symbol, sig.IssuedAt, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, models.ErrNoMarketData
	}
	if err := checkOrdered(candles); err != nil {
		return nil, err
	}

	points := BuildEntryPoints(sig)
	legs := make([]models.EntryResult, len(points))
	for i, point := range points {
		legs[i] = SimulateEntry(sig, point, candles, e.config)
		metrics.RecordEntryLeg(legs[i].Outcome)
	}
	agg := AggregateEntries(legs)

	return &models.BacktestResult{
		ID:                resultID(sig),
		Signal:            sig,
		Entries:           legs,
		FilledEntries:     agg.FilledEntries,
		WeightedPnLPct:    agg.WeightedPnLPct,
		AvgFillPrice:      agg.AvgFillPrice,
		RiskReward:        agg.RiskReward,
		AvgHoldingMinutes: agg.AvgHoldingMinutes,
		Outcome:           agg.Outcome,
		Status:            models.StatusSuccess,
		AnalyzedAt:        e.now(),
	}, nil
}

func (e *Engine) errorResult(sig models.Signal, err error) *models.BacktestResult {
	message := err.Error()
	if errors.Is(err, models.ErrNoMarketData) {
		message = models.ErrNoMarketData.Error()
	}
	return &models.BacktestResult{
		ID:         resultID(sig),
		Signal:     sig,
		Status:     models.StatusError,
		Error:      message,
		AnalyzedAt: e.now(),
	}
}

func checkOrdered(candles []models.Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("%w: candles out of order at %s", models.ErrComputation, candles[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

func resultID(sig models.Signal) uuid.UUID {
	key := fmt.Sprintf("%d|%s|%s|%d", sig.Row, sig.Symbol, sig.Direction, sig.IssuedAt.UnixMilli())
	return uuid.NewSHA1(resultNamespace, []byte(key))
}
