package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{ err error }

func (c stubChecker) HealthCheck(ctx context.Context) error { return c.err }

type stubBatches struct {
	at  time.Time
	err error
}

func (b stubBatches) LastRun() (time.Time, error) { return b.at, b.err }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestReadiness(t *testing.T) {
	lastRun := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		ready      bool
		db         DatabaseChecker
		batches    BatchStatus
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "not marked ready",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "not_ready"},
		},
		{
			name:       "healthy before first batch",
			ready:      true,
			db:         stubChecker{},
			batches:    stubBatches{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"service": "ok", "database": "ok", "last_batch": "pending"},
		},
		{
			name:       "database down",
			ready:      true,
			db:         stubChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "ok", "database": "error: connection refused"},
		},
		{
			name:       "last batch failed",
			ready:      true,
			batches:    stubBatches{at: lastRun, err: errors.New("sink closed")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "ok", "last_batch": "error: sink closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "signal-backtest", Logger: quietLogger(), DB: tt.db, Batches: tt.batches})
			s.SetReady(tt.ready)

			rec, body := get(t, s.Handler(), "/ready")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestHealthReportsLastBatch(t *testing.T) {
	lastRun := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	s := NewServer(Config{ServiceName: "signal-backtest", Version: "1.2.0", Batches: stubBatches{at: lastRun}})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.0", body.Version)
	assert.Equal(t, "2024-03-01T02:00:00Z", body.LastBatch)
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("signal_backtest_batch_runs_total 1\n"))
	})
	s := NewServer(Config{MetricsPath: "/prom", MetricsHandler: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prom", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "batch_runs_total")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
