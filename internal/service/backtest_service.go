// Package service wires configuration, candle providers and sinks into runnable batches.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/backtest"
	"github.com/yourusername/signal-backtest/internal/config"
	"github.com/yourusername/signal-backtest/internal/database"
	"github.com/yourusername/signal-backtest/internal/logger"
	"github.com/yourusername/signal-backtest/internal/marketdata"
	"github.com/yourusername/signal-backtest/internal/repository"
	"github.com/yourusername/signal-backtest/internal/signal"
	"github.com/yourusername/signal-backtest/internal/sink"
)

// BacktestService runs batches of signals from a CSV file through the engine
type BacktestService struct {
	cfg        *config.Config
	provider   marketdata.Provider
	results    sink.ResultStore
	summaries  []backtest.SummarySink
	normalizer *signal.Normalizer
	btConfig   backtest.BacktestConfig
	logger     *logrus.Logger
	db         *database.DB
	repos      *repository.Repositories
}

// NewBacktestService creates a service over explicit collaborators. results may be nil
// unless the output format is postgres.
func NewBacktestService(cfg *config.Config, provider marketdata.Provider, results sink.ResultStore, summaries []backtest.SummarySink, log *logrus.Logger) (*BacktestService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("candle provider is required")
	}
	if log == nil {
		log = logrus.New()
	}

	btConfig, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &BacktestService{
		cfg:        cfg,
		provider:   provider,
		results:    results,
		summaries:  summaries,
		normalizer: signal.NewNormalizer(nil, loc),
		btConfig:   btConfig,
		logger:     log,
	}, nil
}

// Bootstrap builds a service from configuration, connecting to PostgreSQL when the
// provider or output format needs it. Close releases the connection.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*BacktestService, error) {
	var (
		db    *database.DB
		repos *repository.Repositories
		err   error
	)

	if cfg.UsesDatabase() {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	factory := marketdata.NewFactory(cfg, log)
	if repos != nil {
		factory.WithStore(repos.Candle)
	}
	provider, err := factory.NewProvider()
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	var (
		results   sink.ResultStore
		summaries []backtest.SummarySink
	)
	if cfg.Output.SummaryPath != "" {
		summaries = append(summaries, sink.NewFileSummaryWriter(cfg.Output.SummaryPath))
	}
	if cfg.Output.Format == config.FormatPostgres {
		results = repos.BacktestResult
		summaries = append(summaries, repos.Summary)
	}

	svc, err := NewBacktestService(cfg, provider, results, summaries, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	svc.db = db
	svc.repos = repos
	return svc, nil
}

// RunBatch runs the configured input file, replacing previous file output
func (s *BacktestService) RunBatch(ctx context.Context) (*backtest.BatchReport, error) {
	return s.RunFile(ctx, s.cfg.Input.Path, false)
}

// RunScheduledBatch re-reads SIGNAL_BACKTEST_CONFIG_PATH before running a batch so
// a daemon can be pointed at a new input file or results file without a
// restart. Settings other than those two paths are fixed at bootstrap.
func (s *BacktestService) RunScheduledBatch(ctx context.Context) (*backtest.BatchReport, error) {
	next := *s.cfg
	reloaded, err := config.ReloadFromEnv(&next)
	switch {
	case err != nil:
		s.logger.WithError(err).Warn("Config reload failed, keeping current paths")
	case reloaded && (next.Input.Path != s.cfg.Input.Path || next.Output.ResultsPath != s.cfg.Output.ResultsPath):
		s.logger.WithFields(logrus.Fields{
			"input":   next.Input.Path,
			"results": next.Output.ResultsPath,
		}).Info("Batch paths reloaded")
		s.cfg.Input.Path = next.Input.Path
		s.cfg.Output.ResultsPath = next.Output.ResultsPath
	}
	return s.RunBatch(ctx)
}

// RunFile evaluates every signal in a CSV file. Results are written as they are
// produced and the summary is written once the batch completes.
func (s *BacktestService) RunFile(ctx context.Context, path string, appendMode bool) (report *backtest.BatchReport, err error) {
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}

	records, err := signal.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}

	writer, err := sink.Open(s.cfg.Output, s.results, appendMode)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close results: %w", closeErr))
		}
	}()

	engine, err := backtest.NewEngine(s.btConfig, s.normalizer, s.provider, writer, s.logger)
	if err != nil {
		return nil, err
	}

	report, err = engine.Run(ctx, records)
	if err != nil {
		return report, err
	}

	for _, summarySink := range s.summaries {
		if err := summarySink.WriteSummary(ctx, report.Summary); err != nil {
			return report, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	s.logCacheStats()
	return report, nil
}

// Provider returns the candle provider batches run against
func (s *BacktestService) Provider() marketdata.Provider {
	return s.provider
}

// Repositories returns the repositories, nil when no database is configured
func (s *BacktestService) Repositories() *repository.Repositories {
	return s.repos
}

// DB returns the database connection, nil when no database is configured
func (s *BacktestService) DB() *database.DB {
	return s.db
}

// Close releases the database connection
func (s *BacktestService) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *BacktestService) logCacheStats() {
	cached, ok := s.provider.(*marketdata.CachedProvider)
	if !ok {
		return
	}
	hits, misses, entries := cached.Stats()
	logger.NewMarketDataLogger(s.logger, cached.Name()).LogCacheStats(hits, misses, entries)
}
