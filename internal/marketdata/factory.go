package marketdata

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/signal-backtest/internal/config"
)

// Factory creates Provider implementations based on configuration
type Factory struct {
	config *config.Config
	logger *logrus.Logger
	store  CandleStore
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, log *logrus.Logger) *Factory {
	if log == nil {
		log = logrus.New()
	}
	return &Factory{config: cfg, logger: log}
}

// WithStore sets the candle store used by the postgres provider
func (f *Factory) WithStore(store CandleStore) *Factory {
	f.store = store
	return f
}

// NewProvider builds the configured provider, instrumented and, when a TTL is set,
// wrapped in a CachedProvider.
func (f *Factory) NewProvider() (Provider, error) {
	md := f.config.MarketData

	var base Provider
	switch md.Provider {
	case config.ProviderCSV:
		csvProvider, err := NewCSVProvider(md.DataDir, f.config.Backtest.CandleInterval)
		if err != nil {
			return nil, err
		}
		base = csvProvider

	case config.ProviderHTTP:
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.MaxRetries = md.Retries
		if md.TimeoutSeconds > 0 {
			httpCfg.Timeout = time.Duration(md.TimeoutSeconds) * time.Second
		}
		httpCfg.RateLimit = md.RateLimit
		httpCfg.Burst = md.Burst
		if md.CircuitCooldownSeconds > 0 {
			httpCfg.CircuitCooldown = time.Duration(md.CircuitCooldownSeconds) * time.Second
		}

		klines, err := NewKlineProvider(NewRateLimitedHTTPClient(httpCfg, f.logger), md.BaseURL, md.APIKey, f.config.Backtest.CandleInterval)
		if err != nil {
			return nil, err
		}
		base = klines

	case config.ProviderPostgres:
		if f.store == nil {
			return nil, fmt.Errorf("postgres provider requires a candle store")
		}
		base = NewStoreProvider(f.store)

	default:
		return nil, fmt.Errorf("unknown candle provider: %s", md.Provider)
	}

	provider := Instrument(base, f.logger)
	if md.CacheTTLSeconds > 0 && md.CacheMaxSize > 0 {
		provider = NewCachedProvider(provider, time.Duration(md.CacheTTLSeconds)*time.Second, md.CacheMaxSize)
	}

	f.logger.WithFields(logrus.Fields{
		"provider":  md.Provider,
		"cache_ttl": md.CacheTTLSeconds,
	}).Info("Created candle provider")
	return provider, nil
}
