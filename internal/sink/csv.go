package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/signal-backtest/internal/models"
	"github.com/yourusername/signal-backtest/internal/signal"
)

var baseColumns = []string{
	"row", "id", "symbol", "direction", "issued_at", "entries", "stop_losses", "take_profits",
	"status", "error", "outcome", "filled_entries", "weighted_pnl_pct", "avg_fill_price",
	"risk_reward", "avg_holding_minutes", "analyzed_at",
}

var legColumns = []string{
	"price", "weight", "filled", "fill_time", "outcome", "exit_time", "exit_price",
	"pnl_pct", "weighted_pnl_pct", "holding_minutes", "risk_reward",
}

// CSVWriter appends results as flat rows with one column group per entry leg
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens path for CSV output, writing the header when the file is empty
func NewCSVWriter(path string, appendMode bool) (*CSVWriter, error) {
	file, err := openFile(path, appendMode)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	w := &CSVWriter{file: file, writer: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := w.flush(Header()); err != nil {
			file.Close()
			return nil, err
		}
	}
	return w, nil
}

// Header returns the flat column names
func Header() []string {
	header := append([]string{}, baseColumns...)
	for leg := 1; leg <= signal.MaxLegs; leg++ {
		for _, col := range legColumns {
			header = append(header, fmt.Sprintf("entry%d_%s", leg, col))
		}
	}
	return header
}

// Append writes one result row and flushes it to disk
func (w *CSVWriter) Append(ctx context.Context, result *models.BacktestResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flush(Flatten(result))
}

// Close flushes and closes the underlying file
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func (w *CSVWriter) flush(record []string) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}
	return w.file.Sync()
}

// Flatten renders a result as a row matching Header. Legs beyond the third are
// only present in the nested JSON form.
func Flatten(result *models.BacktestResult) []string {
	sig := result.Signal
	row := []string{
		strconv.Itoa(sig.Row),
		result.ID.String(),
		sig.Symbol,
		string(sig.Direction),
		formatTime(sig.IssuedAt),
		joinFloats(sig.Entries),
		joinFloats(sig.StopLosses),
		joinFloats(sig.TakeProfits),
		string(result.Status),
		result.Error,
		string(result.Outcome),
		strconv.Itoa(result.FilledEntries),
		formatFloat(result.WeightedPnLPct),
		formatFloat(result.AvgFillPrice),
		formatOptional(result.RiskReward),
		formatFloat(result.AvgHoldingMinutes),
		formatTime(result.AnalyzedAt),
	}

	for leg := 0; leg < signal.MaxLegs; leg++ {
		if leg >= len(result.Entries) {
			row = append(row, make([]string, len(legColumns))...)
			continue
		}
		entry := result.Entries[leg]
		row = append(row,
			formatFloat(entry.EntryPrice),
			formatFloat(entry.Weight),
			strconv.FormatBool(entry.Filled),
			formatTimePtr(entry.FillTime),
			string(entry.Outcome),
			formatTimePtr(entry.ExitTime),
			formatOptional(entry.ExitPrice),
			formatFloat(entry.PnLPct),
			formatFloat(entry.WeightedPnLPct),
			formatFloat(entry.HoldingMinutes),
			formatOptional(entry.RiskReward),
		)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ";")
}
