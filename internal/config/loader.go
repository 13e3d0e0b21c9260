package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "SIGNAL_BACKTEST"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every key so environment overrides reach Unmarshal
// even when the file omits the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "signal-backtest")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "signal_backtest")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("input.path", "signals.csv")
	v.SetDefault("input.timezone", "UTC")

	v.SetDefault("backtest.lookahead_hours", 72)
	v.SetDefault("backtest.stop_cooldown_minutes", 60)
	v.SetDefault("backtest.break_even_pct", 0.1)
	v.SetDefault("backtest.default_stop_pct", 2.0)
	v.SetDefault("backtest.default_take_profit_pct", 3.0)
	v.SetDefault("backtest.candle_interval", "1m")

	v.SetDefault("market_data.provider", ProviderCSV)
	v.SetDefault("market_data.data_dir", "data/candles")
	v.SetDefault("market_data.base_url", "https://api.binance.com")
	v.SetDefault("market_data.api_key", "")
	v.SetDefault("market_data.rate_limit", 10.0)
	v.SetDefault("market_data.burst", 5)
	v.SetDefault("market_data.retries", 3)
	v.SetDefault("market_data.circuit_cooldown_seconds", 30)
	v.SetDefault("market_data.timeout_seconds", 30)
	v.SetDefault("market_data.cache_ttl_seconds", 900)
	v.SetDefault("market_data.cache_max_size", 256)

	v.SetDefault("output.format", FormatJSONL)
	v.SetDefault("output.results_path", "output/results.jsonl")
	v.SetDefault("output.summary_path", "output/summary.json")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.cron", "0 0 * * *")

	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// ReloadFromEnv replaces cfg with the file named by SIGNAL_BACKTEST_CONFIG_PATH.
// It reports false when the variable is unset. cfg is left untouched when the
// file is missing or fails validation.
func ReloadFromEnv(cfg *Config) (bool, error) {
	envPath := os.Getenv(envPrefix + "_CONFIG_PATH")
	if envPath == "" {
		return false, nil
	}
	if _, err := os.Stat(envPath); err != nil {
		return false, fmt.Errorf("failed to reload configuration: %w", err)
	}

	newCfg, err := LoadWithDefaults(envPath)
	if err != nil {
		return false, err
	}
	if err := Validate(newCfg); err != nil {
		return false, err
	}
	*cfg = *newCfg
	return true, nil
}
