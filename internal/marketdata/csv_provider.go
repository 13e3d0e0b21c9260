package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/signal-backtest/internal/models"
	"github.com/yourusername/signal-backtest/internal/signal"
)

var (
	timeColumns   = []string{"open_time", "timestamp", "time", "date", "datetime"}
	openColumns   = []string{"open", "o"}
	highColumns   = []string{"high", "h"}
	lowColumns    = []string{"low", "l"}
	closeColumns  = []string{"close", "c"}
	volumeColumns = []string{"volume", "vol", "v"}
)

// CSVProvider reads candles from per-symbol CSV files in a directory
type CSVProvider struct {
	dataDir  string
	interval string
}

// NewCSVProvider creates a provider rooted at dataDir. interval is used to discover
// files named like BTCUSDT_1m.csv.
func NewCSVProvider(dataDir, interval string) (*CSVProvider, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("candle data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("candle data path %s is not a directory", dataDir)
	}
	return &CSVProvider{dataDir: dataDir, interval: interval}, nil
}

// Name returns the provider name
func (p *CSVProvider) Name() string {
	return "csv"
}

// GetCandles loads the symbol's file and clips it to [start, end]. A symbol without a
// file has no market data.
func (p *CSVProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := NormalizeSymbol(symbol)
	path, ok := p.discover(normalized)
	if !ok {
		return []models.Candle{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeNetworkError, "failed to open "+path, err)
	}
	defer file.Close()

	candles, err := readCandles(file, normalized)
	if err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeInvalidData, path, err)
	}
	return sortAndClip(candles, start, end), nil
}

// discover returns the first existing candidate file for a symbol
func (p *CSVProvider) discover(symbol string) (string, bool) {
	candidates := []string{
		filepath.Join(p.dataDir, symbol+"_"+p.interval+".csv"),
		filepath.Join(p.dataDir, p.interval, symbol+".csv"),
		filepath.Join(p.dataDir, symbol+".csv"),
		filepath.Join(p.dataDir, strings.ToLower(symbol)+".csv"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// readCandles parses a header-led OHLCV CSV. Rows with an unparseable time are
// skipped; malformed prices fail the whole file.
func readCandles(r io.Reader, symbol string) ([]models.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	cols := make([]int, 0, 6)
	for _, names := range [][]string{timeColumns, openColumns, highColumns, lowColumns, closeColumns} {
		col, ok := findColumn(index, names)
		if !ok {
			return nil, fmt.Errorf("missing column %s", names[0])
		}
		cols = append(cols, col)
	}
	volumeCol, hasVolume := findColumn(index, volumeColumns)

	var candles []models.Candle
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, ok := signal.ParseTime(field(record, cols[0]), time.UTC)
		if !ok {
			continue
		}

		prices := make([]float64, 4)
		for i, col := range cols[1:] {
			value, err := decimal.NewFromString(field(record, col))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid price %q", line, field(record, col))
			}
			prices[i] = value.InexactFloat64()
		}

		candle := models.Candle{
			Symbol: symbol,
			Time:   ts,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
		}
		if hasVolume {
			if volume, err := decimal.NewFromString(field(record, volumeCol)); err == nil {
				candle.Volume = volume.InexactFloat64()
			}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func findColumn(index map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if col, ok := index[name]; ok {
			return col, true
		}
	}
	return 0, false
}

func field(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
