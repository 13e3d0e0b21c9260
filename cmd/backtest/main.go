// Package main provides the entry point for the signal backtesting CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/signal-backtest/internal/backtest"
	"github.com/yourusername/signal-backtest/internal/config"
	"github.com/yourusername/signal-backtest/internal/database"
	"github.com/yourusername/signal-backtest/internal/health"
	"github.com/yourusername/signal-backtest/internal/logger"
	"github.com/yourusername/signal-backtest/internal/marketdata"
	"github.com/yourusername/signal-backtest/internal/metrics"
	"github.com/yourusername/signal-backtest/internal/repository"
	"github.com/yourusername/signal-backtest/internal/scheduler"
	"github.com/yourusername/signal-backtest/internal/service"
	"github.com/yourusername/signal-backtest/internal/sink"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
)

var (
	inputPath   string
	appendMode  bool
	resultsPath string
	symbols     string
	startDate   string
	endDate     string
	runOnStart  bool
	since       string
	until       string
	latest      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Signal CSV file (overrides input.path)")
	runCmd.Flags().BoolVar(&appendMode, "append", false, "Append to existing result files instead of replacing them")

	scheduleCmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run one batch immediately before waiting for the schedule")

	summaryCmd.Flags().StringVarP(&resultsPath, "results", "r", "", "JSONL results file (defaults to output.results_path)")
	summaryCmd.Flags().StringVar(&since, "since", "", "With postgres output, first issue date to include (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&until, "until", "", "With postgres output, last issue date to include (YYYY-MM-DD)")
	summaryCmd.Flags().BoolVar(&latest, "latest", false, "With postgres output, print the summary stored by the last batch")

	ingestCmd.Flags().StringVar(&symbols, "symbols", "", "Comma-separated symbols to ingest")
	ingestCmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD, exclusive)")
	ingestCmd.MarkFlagRequired("symbols")
	ingestCmd.MarkFlagRequired("start-date")
	ingestCmd.MarkFlagRequired("end-date")

	rootCmd.AddCommand(runCmd, scheduleCmd, summaryCmd, showCmd, ingestCmd)
}

var rootCmd = &cobra.Command{
	Use:     "backtest",
	Short:   "Backtest trading signals against historical candles",
	Long:    `Evaluates trading calls (symbol, direction, entries, stop-loss, take-profit) against OHLC candles and reports per-signal outcomes and batch statistics.`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		metrics.InitRegistry()
		return nil
	},
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one batch over a signal file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := service.Bootstrap(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		defer svc.Close()

		path := inputPath
		if path == "" {
			path = cfg.Input.Path
		}
		report, err := svc.RunFile(ctx, path, appendMode)
		if err != nil {
			return err
		}

		fmt.Print(backtest.GenerateConsoleReport(report.Summary))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run batches on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Schedule.Enabled {
			return fmt.Errorf("schedule.enabled is false")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := service.Bootstrap(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		defer svc.Close()

		sched := scheduler.NewScheduler(svc.RunScheduledBatch, 0, appLog)
		if _, err := sched.ScheduleBatch(cfg.Schedule.Cron); err != nil {
			return err
		}

		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			Logger:      appLog,
			DB:          dbChecker(svc.DB()),
			Batches:     sched,
		}
		if cfg.Metrics.Enabled {
			healthCfg.MetricsHandler = metrics.Handler()
		}
		server := health.NewServer(healthCfg)
		if err := server.Start(ctx); err != nil {
			return err
		}

		if runOnStart {
			if err := sched.RunNow(ctx); err != nil {
				appLog.WithError(err).Error("Initial batch failed")
			}
		}

		if err := sched.Start(); err != nil {
			return err
		}
		server.SetReady(true)
		appLog.WithField("next_run", sched.GetNextRun()).Info("Waiting for scheduled batches")

		<-ctx.Done()
		server.SetReady(false)
		return sched.Stop()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Recompute the summary from stored results",
	Long:  `Reads the JSONL results file, or the backtest_results table when output.format is postgres, and prints the batch statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Output.Format == config.FormatPostgres {
			return storedSummary(cmd.Context())
		}

		path := resultsPath
		if path == "" {
			path = cfg.Output.ResultsPath
		}

		results, err := sink.ReadJSONL(path)
		if err != nil {
			return err
		}
		summary := backtest.CalculateSummary(results, time.Now().UTC())
		fmt.Print(backtest.GenerateConsoleReport(summary))

		if cfg.Output.SummaryPath != "" {
			return sink.NewFileSummaryWriter(cfg.Output.SummaryPath).WriteSummary(cmd.Context(), summary)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Print one stored result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid result id: %w", err)
		}

		query, closeDB, err := openResultQuery(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		result, err := query.Result(cmd.Context(), id)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Copy candles from the configured provider into PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MarketData.Provider == config.ProviderPostgres {
			return fmt.Errorf("ingest needs a csv or http market_data.provider as its source")
		}

		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		source, err := marketdata.NewFactory(cfg, appLog).NewProvider()
		if err != nil {
			return err
		}

		ingestion := service.NewCandleIngestionService(source, repos.Candle, 24*time.Hour, appLog)
		stats, err := ingestion.Ingest(ctx, splitSymbols(symbols), start.UTC(), end.UTC().Add(-time.Nanosecond))
		if err != nil {
			return err
		}
		fmt.Println(stats.String())
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	return config.Validate(cfg)
}

// storedSummary prints the last stored summary or recomputes one over an issue range
func storedSummary(ctx context.Context) error {
	query, closeDB, err := openResultQuery(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if latest {
		summary, err := query.Latest(ctx)
		if err != nil {
			return err
		}
		fmt.Print(backtest.GenerateConsoleReport(*summary))
		return nil
	}

	start, end := time.Unix(0, 0).UTC(), time.Now().UTC()
	if since != "" {
		if start, err = time.Parse("2006-01-02", since); err != nil {
			return fmt.Errorf("invalid since date: %w", err)
		}
	}
	if until != "" {
		day, err := time.Parse("2006-01-02", until)
		if err != nil {
			return fmt.Errorf("invalid until date: %w", err)
		}
		end = day.Add(24*time.Hour - time.Nanosecond)
	}

	summary, err := query.Summarize(ctx, start, end, time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Print(backtest.GenerateConsoleReport(summary))
	return nil
}

func openResultQuery(ctx context.Context) (*service.ResultQuery, func(), error) {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	query, err := service.NewResultQuery(repos.BacktestResult, repos.Summary)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return query, db.Close, nil
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dbChecker avoids handing the health server a typed nil
func dbChecker(db *database.DB) health.DatabaseChecker {
	if db == nil {
		return nil
	}
	return db
}
