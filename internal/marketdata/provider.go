// Package marketdata supplies historical candle series to the backtest engine.
package marketdata

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/signal-backtest/internal/models"
)

// Provider returns the candles of a symbol inside [start, end], sorted ascending by
// open time. An unknown symbol or an empty window yields an empty slice, not an error.
type Provider interface {
	GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
	Name() string
}

// CandleStore is the subset of the candle repository the postgres provider needs
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
}

// ProviderError represents transport or decoding failures from a provider
type ProviderError struct {
	Source  string // Provider name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeCircuitOpen       = "circuit_open"
)

// Sentinel causes wrapped by ProviderError
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidData       = errors.New("invalid data format")
	ErrServerError       = errors.New("server error")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

// NewProviderError creates a new provider error
func NewProviderError(source, code, message string, err error) ProviderError {
	return ProviderError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var quoteAssets = []string{"USDT", "USDC", "FDUSD", "BUSD", "BTC", "ETH", "BNB"}

// wrappedAssets end in a quote asset but are bases in their own right.
var wrappedAssets = map[string]bool{
	"WBTC": true, "WETH": true, "STETH": true, "WSTETH": true, "WBETH": true,
	"CBETH": true, "RETH": true, "BETH": true, "WBNB": true, "TBTC": true,
}

// minBaseLen is the shortest base asset accepted in front of a quote suffix.
const minBaseLen = 2

// NormalizeSymbol maps the spellings seen in signal exports (btc/usdt, BTC-USDT,
// BTCUSDT.P, BTCUSDTPERP, BTC) onto exchange symbols such as BTCUSDT. A bare base
// asset is quoted in USDT.
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, ".P")
	s = strings.TrimSuffix(s, "PERP")
	s = strings.NewReplacer("/", "", "-", "", "_", "", " ", "", ":", "").Replace(s)
	if s == "" {
		return s
	}

	if wrappedAssets[s] {
		return s + "USDT"
	}
	for _, quote := range quoteAssets {
		if strings.HasSuffix(s, quote) && len(s) >= len(quote)+minBaseLen {
			return s
		}
	}
	return s + "USDT"
}

// sortAndClip orders candles by open time, drops duplicate timestamps and keeps
// only those inside [start, end].
func sortAndClip(candles []models.Candle, start, end time.Time) []models.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	out := make([]models.Candle, 0, len(candles))
	for _, candle := range candles {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(candle.Time) {
			continue
		}
		out = append(out, candle)
	}
	return out
}

// storeProvider serves candles from the postgres candle repository
type storeProvider struct {
	store CandleStore
}

// NewStoreProvider wraps a candle store as a Provider
func NewStoreProvider(store CandleStore) Provider {
	return &storeProvider{store: store}
}

func (p *storeProvider) Name() string {
	return "postgres"
}

func (p *storeProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	candles, err := p.store.GetCandles(ctx, NormalizeSymbol(symbol), start, end)
	if err != nil {
		return nil, NewProviderError(p.Name(), ErrCodeNetworkError, "candle query failed", err)
	}
	return sortAndClip(candles, start, end), nil
}
