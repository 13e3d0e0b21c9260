package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/yourusername/signal-backtest/internal/models"
)

const maxLineSize = 4 * 1024 * 1024

// JSONLWriter appends one JSON document per line and syncs after each record, so a
// crash loses at most the record being written.
type JSONLWriter struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewJSONLWriter opens path for line-delimited JSON output
func NewJSONLWriter(path string, appendMode bool) (*JSONLWriter, error) {
	file, err := openFile(path, appendMode)
	if err != nil {
		return nil, err
	}
	return &JSONLWriter{file: file, encoder: json.NewEncoder(file)}, nil
}

// Append writes one result and flushes it to disk
func (w *JSONLWriter) Append(ctx context.Context, result *models.BacktestResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return w.file.Sync()
}

// Close closes the underlying file
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReadJSONL loads every result from a JSONL file, skipping blank lines
func ReadJSONL(path string) ([]*models.BacktestResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var results []*models.BacktestResult
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		result := &models.BacktestResult{}
		if err := json.Unmarshal(scanner.Bytes(), result); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return results, nil
}
