package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/signal-backtest/internal/models"
)

const (
	klinePath      = "/api/v3/klines"
	klinePageLimit = 1000

	// Binance answers unknown symbols with HTTP 400 and this error code
	invalidSymbolCode = "-1121"
)

// KlineProvider fetches candles from a Binance-compatible klines endpoint
type KlineProvider struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	interval   string
	step       time.Duration
}

// NewKlineProvider creates a new kline provider
func NewKlineProvider(httpClient *RateLimitedHTTPClient, baseURL, apiKey, interval string) (*KlineProvider, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	return &KlineProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		interval:   interval,
		step:       step,
	}, nil
}

// Name returns the provider name
func (p *KlineProvider) Name() string {
	return "http"
}

// GetCandles pages forward from start until end is covered or the exchange runs out
// of bars.
func (p *KlineProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	normalized := NormalizeSymbol(symbol)
	var out []models.Candle

	cursor := start
	for !cursor.After(end) {
		rows, err := p.fetchPage(ctx, normalized, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		last := cursor
		for _, row := range rows {
			candle, err := klineRowToCandle(row, normalized)
			if err != nil {
				return nil, NewProviderError(p.Name(), ErrCodeInvalidData, "malformed kline row", err)
			}
			out = append(out, candle)
			last = candle.Time
		}

		if len(rows) < klinePageLimit {
			break
		}
		next := last.Add(p.step)
		if !next.After(cursor) {
			break
		}
		cursor = next
	}

	return sortAndClip(out, start, end), nil
}

func (p *KlineProvider) fetchPage(ctx context.Context, symbol string, start, end time.Time) ([][]json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", p.interval)
	query.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	query.Set("limit", strconv.Itoa(klinePageLimit))

	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["X-MBX-APIKEY"] = p.apiKey
	}

	resp, err := p.httpClient.Get(ctx, p.baseURL+klinePath+"?"+query.Encode(), headers)
	if err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeNetworkError, "kline request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeNetworkError, "failed to read kline response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), invalidSymbolCode):
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(p.Name(), ErrCodeRateLimitExceeded, string(body), ErrRateLimitExceeded)
	default:
		return nil, NewProviderError(p.Name(), ErrCodeServerError, fmt.Sprintf("status %d: %s", resp.StatusCode, body), ErrServerError)
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeInvalidData, "failed to decode klines", err)
	}
	return rows, nil
}

// klineRowToCandle decodes [openTime, "open", "high", "low", "close", "volume", ...]
func klineRowToCandle(row []json.RawMessage, symbol string) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Candle{}, fmt.Errorf("open time: %w", err)
	}

	values := make([]float64, 5)
	for i := range values {
		value, err := rawDecimal(row[i+1])
		if err != nil {
			return models.Candle{}, err
		}
		values[i] = value
	}

	return models.Candle{
		Symbol: symbol,
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// rawDecimal accepts both quoted and bare JSON numbers
func rawDecimal(raw json.RawMessage) (float64, error) {
	text := strings.Trim(string(raw), `"`)
	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("invalid number %s", raw)
	}
	return value.InexactFloat64(), nil
}
