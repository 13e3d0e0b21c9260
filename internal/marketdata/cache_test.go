package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/signal-backtest/internal/models"
)

type countingProvider struct {
	calls   int
	err     error
	candles []models.Candle
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return copyCandles(p.candles), nil
}

func TestCachedProviderServesRepeatWindows(t *testing.T) {
	next := &countingProvider{candles: []models.Candle{{Time: t0, Close: 100}}}
	cached := NewCachedProvider(next, time.Minute, 10)

	first, err := cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	second, err := cached.GetCandles(context.Background(), "btc/usdt", t0, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)

	hits, misses, entries := cached.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, entries)
	assert.Equal(t, 0.5, cached.HitRatio())
	assert.Equal(t, "counting", cached.Name())
}

func TestCachedProviderReturnsCopies(t *testing.T) {
	next := &countingProvider{candles: []models.Candle{{Time: t0, Close: 100}}}
	cached := NewCachedProvider(next, time.Minute, 10)

	first, err := cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	first[0].Close = -1

	second, err := cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 100.0, second[0].Close)

	second[0].Close = -2
	third, err := cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 100.0, third[0].Close)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	next := &countingProvider{err: errors.New("boom")}
	cached := NewCachedProvider(next, time.Minute, 10)

	_, err := cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.Error(t, err)
	_, err = cached.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedProviderBoundsSize(t *testing.T) {
	next := &countingProvider{}
	cached := NewCachedProvider(next, time.Minute, 2)

	for i := 0; i < 5; i++ {
		start := t0.Add(time.Duration(i) * time.Hour)
		_, err := cached.GetCandles(context.Background(), "BTCUSDT", start, start.Add(time.Hour))
		require.NoError(t, err)
	}

	_, _, entries := cached.Stats()
	assert.LessOrEqual(t, entries, 2)

	cached.Clear()
	_, _, entries = cached.Stats()
	assert.Equal(t, 0, entries)
}
