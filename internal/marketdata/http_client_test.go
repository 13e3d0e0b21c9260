package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := testHTTPClient()
	client.client.RetryMax = 2

	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := testHTTPClient()
	client.circuitBreakerMax = 2

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), url, nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := client.Get(context.Background(), url, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	client.Reset()
	_, err = client.Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCircuitOpen))
}

func TestHTTPClientCircuitRecoversAfterCooldown(t *testing.T) {
	var healthy atomic.Bool
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	client := testHTTPClient()
	client.circuitBreakerMax = 2
	client.cooldown = time.Minute
	client.now = func() time.Time { return clock }

	get := func() (*http.Response, error) {
		resp, err := client.Get(context.Background(), server.URL, nil)
		if resp != nil {
			resp.Body.Close()
		}
		return resp, err
	}

	for i := 0; i < 2; i++ {
		_, err := get()
		require.NoError(t, err)
	}
	_, err := get()
	require.ErrorIs(t, err, ErrCircuitOpen)

	// a failed trial after the cooldown reopens the circuit
	clock = clock.Add(time.Minute)
	resp, err := get()
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_, err = get()
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	healthy.Store(true)
	clock = clock.Add(time.Minute)
	resp, err = get()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = get()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestCustomRetryPolicy(t *testing.T) {
	policy := customRetryPolicy()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		status int
		err    error
		want   bool
	}{
		{"transport error", context.Background(), 0, errors.New("reset"), true},
		{"rate limited", context.Background(), http.StatusTooManyRequests, nil, true},
		{"bad gateway", context.Background(), http.StatusBadGateway, nil, true},
		{"not found", context.Background(), http.StatusNotFound, nil, false},
		{"bad request", context.Background(), http.StatusBadRequest, nil, false},
		{"ok", context.Background(), http.StatusOK, nil, false},
		{"cancelled", cancelled, http.StatusServiceUnavailable, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.status != 0 {
				resp = &http.Response{StatusCode: tt.status}
			}
			retry, _ := policy(tt.ctx, resp, tt.err)
			assert.Equal(t, tt.want, retry)
		})
	}
}
