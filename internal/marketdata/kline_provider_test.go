package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RateLimit = 0

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewRateLimitedHTTPClient(cfg, log)
}

func klineRow(openTime time.Time, price float64) string {
	return fmt.Sprintf(`[%d,"%.2f","%.2f","%.2f","%.2f","1.5",%d,"0",10,"0","0","0"]`,
		openTime.UnixMilli(), price, price+1, price-1, price, openTime.Add(time.Minute).UnixMilli()-1)
}

func TestKlineProviderGetCandles(t *testing.T) {
	var gotQuery atomic.Value
	var gotKey atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, klinePath, r.URL.Path)
		gotQuery.Store(r.URL.Query())
		gotKey.Store(r.Header.Get("X-MBX-APIKEY"))
		fmt.Fprintf(w, "[%s,%s]", klineRow(t0, 100), klineRow(t0.Add(time.Minute), 101))
	}))
	defer server.Close()

	provider, err := NewKlineProvider(testHTTPClient(), server.URL+"/", "key-123", "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "btc/usdt", t0, t0.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, candles, 2)
	assert.Equal(t, t0, candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 1.5, candles[0].Volume)
	assert.Equal(t, "BTCUSDT", candles[1].Symbol)

	query := gotQuery.Load().(url.Values)
	assert.Equal(t, "BTCUSDT", query.Get("symbol"))
	assert.Equal(t, "1m", query.Get("interval"))
	assert.Equal(t, strconv.FormatInt(t0.UnixMilli(), 10), query.Get("startTime"))
	assert.Equal(t, "key-123", gotKey.Load())
}

func TestKlineProviderPages(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		startMs, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		start := time.UnixMilli(startMs).UTC()

		count := klinePageLimit
		if start.After(t0) {
			count = 10
		}
		rows := make([]string, count)
		for i := range rows {
			rows[i] = klineRow(start.Add(time.Duration(i)*time.Minute), 100)
		}
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	}))
	defer server.Close()

	provider, err := NewKlineProvider(testHTTPClient(), server.URL, "", "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(72*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, candles, klinePageLimit+10)
	assert.Equal(t, t0.Add(time.Duration(klinePageLimit)*time.Minute), candles[klinePageLimit].Time)
}

func TestKlineProviderInvalidSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	}))
	defer server.Close()

	provider, err := NewKlineProvider(testHTTPClient(), server.URL, "", "1m")
	require.NoError(t, err)

	candles, err := provider.GetCandles(context.Background(), "NOPEUSDT", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestKlineProviderServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testHTTPClient()
	client.client.RetryMax = 1
	provider, err := NewKlineProvider(client, server.URL, "", "1m")
	require.NoError(t, err)

	_, err = provider.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))
	require.Error(t, err)

	var providerErr ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "http", providerErr.Source)
	assert.Equal(t, ErrCodeServerError, providerErr.Code)
	assert.Contains(t, providerErr.Message, "status 502")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestKlineProviderMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[1709251200000,"abc","1","1","1","1"]]`)
	}))
	defer server.Close()

	provider, err := NewKlineProvider(testHTTPClient(), server.URL, "", "1m")
	require.NoError(t, err)

	_, err = provider.GetCandles(context.Background(), "BTCUSDT", t0, t0.Add(time.Hour))

	var providerErr ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, ErrCodeInvalidData, providerErr.Code)
}

func TestNewKlineProviderValidation(t *testing.T) {
	_, err := NewKlineProvider(nil, "http://localhost", "", "1m")
	assert.Error(t, err)

	_, err = NewKlineProvider(testHTTPClient(), "http://localhost", "", "1x")
	assert.Error(t, err)
}

func TestCircuitBreakerOpens(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 2
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	client := NewRateLimitedHTTPClient(cfg, log)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	}

	_, err := client.Get(context.Background(), server.URL, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	client.Reset()
	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
