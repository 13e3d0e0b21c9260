package backtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/signal-backtest/internal/models"
)

func TestGenerateConsoleReport(t *testing.T) {
	report := GenerateConsoleReport(models.Summary{TotalSignals: 10, ValidSignals: 8, ClosedTrades: 4, WinningTrades: 3, LosingTrades: 1, WinRate: 0.75})

	assert.Contains(t, report, "Total Signals: 10")
	assert.Contains(t, report, "Closed Trades: 4 (3 won, 1 lost)")
	assert.Contains(t, report, "Win Rate: 75.00%")
}

func TestGenerateCSVExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.csv")

	err := GenerateCSVExport(models.Summary{TotalSignals: 3, WinRate: 0.5}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "metric,value\n")
	assert.Contains(t, string(data), "total_signals,3\n")
	assert.Contains(t, string(data), "win_rate,0.5000\n")
}
