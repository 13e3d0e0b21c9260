package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/signal-backtest/internal/models"
)

// GenerateConsoleReport formats a batch summary for terminal output
func GenerateConsoleReport(summary models.Summary) string {
	var builder strings.Builder
	builder.WriteString("Signal Backtest Summary\n")
	builder.WriteString("=======================\n")
	builder.WriteString(fmt.Sprintf("Total Signals: %d\n", summary.TotalSignals))
	builder.WriteString(fmt.Sprintf("Valid Signals: %d\n", summary.ValidSignals))
	builder.WriteString(fmt.Sprintf("Closed Trades: %d (%d won, %d lost)\n", summary.ClosedTrades, summary.WinningTrades, summary.LosingTrades))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", summary.WinRate*100))
	builder.WriteString(fmt.Sprintf("Avg Winner: %.2f%%\n", summary.AvgWinPnLPct))
	builder.WriteString(fmt.Sprintf("Avg Loser: %.2f%%\n", summary.AvgLossPnLPct))
	builder.WriteString(fmt.Sprintf("Total P&L: %.2f%%\n", summary.TotalPnLPct))
	builder.WriteString(fmt.Sprintf("Avg Holding: %.1f min\n", summary.AvgHoldingMinutes))
	return builder.String()
}

// GenerateCSVExport exports the summary as metric,value rows for spreadsheets
func GenerateCSVExport(summary models.Summary, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	csv := "metric,value\n" +
		fmt.Sprintf("total_signals,%d\n", summary.TotalSignals) +
		fmt.Sprintf("valid_signals,%d\n", summary.ValidSignals) +
		fmt.Sprintf("closed_trades,%d\n", summary.ClosedTrades) +
		fmt.Sprintf("winning_trades,%d\n", summary.WinningTrades) +
		fmt.Sprintf("losing_trades,%d\n", summary.LosingTrades) +
		fmt.Sprintf("win_rate,%.4f\n", summary.WinRate) +
		fmt.Sprintf("avg_win_pnl_pct,%.4f\n", summary.AvgWinPnLPct) +
		fmt.Sprintf("avg_loss_pnl_pct,%.4f\n", summary.AvgLossPnLPct) +
		fmt.Sprintf("total_pnl_pct,%.4f\n", summary.TotalPnLPct) +
		fmt.Sprintf("avg_holding_minutes,%.2f\n", summary.AvgHoldingMinutes)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}
