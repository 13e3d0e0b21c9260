// Package sink persists backtest results and summaries as they are produced.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/signal-backtest/internal/config"
	"github.com/yourusername/signal-backtest/internal/models"
)

// ResultWriter appends results one at a time and releases its resources on Close
type ResultWriter interface {
	Append(ctx context.Context, result *models.BacktestResult) error
	Close() error
}

// ResultStore is the subset of the result repository used for postgres output
type ResultStore interface {
	Append(ctx context.Context, result *models.BacktestResult) error
}

// Open creates the result writer for the configured output format. File writers
// start from an empty file unless appendMode is set.
func Open(cfg config.OutputConfig, store ResultStore, appendMode bool) (ResultWriter, error) {
	switch cfg.Format {
	case config.FormatJSONL:
		return NewJSONLWriter(cfg.ResultsPath, appendMode)
	case config.FormatCSV:
		return NewCSVWriter(cfg.ResultsPath, appendMode)
	case config.FormatPostgres:
		if store == nil {
			return nil, fmt.Errorf("postgres output requires a result store")
		}
		return storeWriter{store: store}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", cfg.Format)
	}
}

type storeWriter struct {
	store ResultStore
}

func (w storeWriter) Append(ctx context.Context, result *models.BacktestResult) error {
	return w.store.Append(ctx, result)
}

func (w storeWriter) Close() error {
	return nil
}

func openFile(path string, appendMode bool) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !appendMode {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}
