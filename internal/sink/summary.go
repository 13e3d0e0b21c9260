package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/signal-backtest/internal/backtest"
	"github.com/yourusername/signal-backtest/internal/models"
)

// FileSummaryWriter writes the batch summary to a file, replacing any previous one.
// A .csv path produces metric,value rows; anything else produces indented JSON.
type FileSummaryWriter struct {
	path string
}

// NewFileSummaryWriter creates a summary writer for path
func NewFileSummaryWriter(path string) *FileSummaryWriter {
	return &FileSummaryWriter{path: path}
}

// WriteSummary persists the summary
func (w *FileSummaryWriter) WriteSummary(ctx context.Context, summary models.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.path == "" {
		return fmt.Errorf("summary path is required")
	}

	if strings.EqualFold(filepath.Ext(w.path), ".csv") {
		return backtest.GenerateCSVExport(summary, w.path)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return os.WriteFile(w.path, append(data, '\n'), 0o644)
}
