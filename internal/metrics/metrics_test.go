package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/signal-backtest/internal/models"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordSignal(t *testing.T) {
	InitRegistry()
	successBefore := testutil.ToFloat64(SignalsProcessedTotal.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(SignalsProcessedTotal.WithLabelValues("error"))
	tpBefore := testutil.ToFloat64(SignalOutcomesTotal.WithLabelValues("take_profit"))

	RecordSignal(models.StatusSuccess, models.OutcomeTakeProfit, 0.01)
	RecordSignal(models.StatusError, "", 0.001)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(SignalsProcessedTotal.WithLabelValues("success")))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(SignalsProcessedTotal.WithLabelValues("error")))
	assert.Equal(t, tpBefore+1, testutil.ToFloat64(SignalOutcomesTotal.WithLabelValues("take_profit")))
}

func TestRecordEntryLeg(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(EntryLegsTotal.WithLabelValues("no_entry"))

	RecordEntryLeg(models.OutcomeNoEntry)
	RecordEntryLeg(models.OutcomeNoEntry)

	assert.Equal(t, before+2, testutil.ToFloat64(EntryLegsTotal.WithLabelValues("no_entry")))
}

func TestRecordBatch(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BatchRunsTotal)

	RecordBatch(2.5, 0.6, 12)

	assert.Equal(t, before+1, testutil.ToFloat64(BatchRunsTotal))
	assert.Equal(t, 0.6, testutil.ToFloat64(LastBatchWinRate))
	assert.Equal(t, 12.0, testutil.ToFloat64(LastBatchClosedTrades))
}

func TestMarketDataMetrics(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CandleFetchesTotal.WithLabelValues("http", "failure"))

	RecordCandleFetch("http", "failure", 0.2)
	UpdateCacheHitRatio(0.75)

	assert.Equal(t, before+1, testutil.ToFloat64(CandleFetchesTotal.WithLabelValues("http", "failure")))
	assert.Equal(t, 0.75, testutil.ToFloat64(CandleCacheHitRatio))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordBatch(1, 0.5, 2)

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "signal_backtest_batch_runs_total"))
}
