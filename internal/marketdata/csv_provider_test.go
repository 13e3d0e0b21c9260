package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcCSV = `open_time,open,high,low,close,volume
1709251320000,100.5,101,100,100.8,12.5
1709251200000,100,101,99.5,100.5,10
1709251260000,100.5,100.9,100.1,100.5,11
not-a-time,1,1,1,1,1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCSVProviderGetCandles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BTCUSDT_1m.csv"), btcCSV)

	provider, err := NewCSVProvider(dir, "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "btc/usdt", t0, t0.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, candles, 3)
	assert.Equal(t, t0, candles[0].Time)
	assert.Equal(t, "BTCUSDT", candles[0].Symbol)
	assert.Equal(t, 99.5, candles[0].Low)
	assert.Equal(t, 10.0, candles[0].Volume)
	assert.True(t, candles[1].Time.Before(candles[2].Time))
}

func TestCSVProviderClipsWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BTCUSDT.csv"), btcCSV)

	provider, err := NewCSVProvider(dir, "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "BTCUSDT", t0.Add(time.Minute), t0.Add(time.Minute))
	require.NoError(t, err)

	require.Len(t, candles, 1)
	assert.Equal(t, t0.Add(time.Minute), candles[0].Time)
}

func TestCSVProviderDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1m", "ETHUSDT.csv"), "time,open,high,low,close\n2024-03-01 00:00:00,3000,3010,2990,3005\n")
	writeFile(t, filepath.Join(dir, "solusdt.csv"), "timestamp,o,h,l,c\n1709251200,100,110,90,105\n")

	provider, err := NewCSVProvider(dir, "1m")
	require.NoError(t, err)

	eth, err := provider.GetCandles(context.Background(), "ETH", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, 3005.0, eth[0].Close)

	sol, err := provider.GetCandles(context.Background(), "SOLUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sol, 1)
	assert.Equal(t, 0.0, sol[0].Volume)
}

func TestCSVProviderUnknownSymbol(t *testing.T) {
	provider, err := NewCSVProvider(t.TempDir(), "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "DOGEUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestCSVProviderMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BTCUSDT.csv"), "open_time,open,high,low,close\n1709251200000,abc,1,1,1\n")

	provider, err := NewCSVProvider(dir, "1m")
	require.NoError(t, err)

	_, err = provider.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.Error(t, err)

	var providerErr ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrCodeInvalidData, providerErr.Code)
}

func TestCSVProviderMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BTCUSDT.csv"), "open_time,open,high,close\n1709251200000,1,1,1\n")

	provider, err := NewCSVProvider(dir, "1m")
	require.NoError(t, err)

	_, err = provider.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	assert.ErrorContains(t, err, "missing column low")
}

func TestNewCSVProviderRequiresDirectory(t *testing.T) {
	_, err := NewCSVProvider(filepath.Join(t.TempDir(), "missing"), "1m")
	assert.Error(t, err)
}
