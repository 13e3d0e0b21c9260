package marketdata

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/logger"
	"github.com/yourusername/signal-backtest/internal/metrics"
	"github.com/yourusername/signal-backtest/internal/models"
)

// instrumentedProvider records fetch metrics and logs around another provider
type instrumentedProvider struct {
	next   Provider
	logger *logger.MarketDataLogger
}

// Instrument wraps a provider with fetch metrics and debug logging
func Instrument(next Provider, log *logrus.Logger) Provider {
	return &instrumentedProvider{
		next:   next,
		logger: logger.NewMarketDataLogger(log, next.Name()),
	}
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) GetCandles(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	started := time.Now()
	candles, err := p.next.GetCandles(ctx, symbol, start, end)
	duration := time.Since(started)

	if err != nil {
		metrics.RecordCandleFetch(p.Name(), "failure", duration.Seconds())
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Candle fetch failed")
		return nil, err
	}

	metrics.RecordCandleFetch(p.Name(), "success", duration.Seconds())
	p.logger.LogFetch(symbol, start, end, len(candles), duration)
	return candles, nil
}
