// Package config provides configuration management for the signal backtester.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Input      InputConfig      `mapstructure:"input"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Output     OutputConfig     `mapstructure:"output" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. It is only
// required when candles are read from, or results written to, PostgreSQL.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gte=0"`
}

// InputConfig describes where raw signals come from
type InputConfig struct {
	Path     string `mapstructure:"path"`
	Timezone string `mapstructure:"timezone"`
}

// BacktestConfig represents the simulation parameters
type BacktestConfig struct {
	LookaheadHours       int     `mapstructure:"lookahead_hours" validate:"required,gt=0"`
	StopCooldownMinutes  int     `mapstructure:"stop_cooldown_minutes" validate:"gte=0"`
	BreakEvenPct         float64 `mapstructure:"break_even_pct" validate:"gte=0"`
	DefaultStopPct       float64 `mapstructure:"default_stop_pct" validate:"required,gt=0,lt=100"`
	DefaultTakeProfitPct float64 `mapstructure:"default_take_profit_pct" validate:"required,gt=0"`
	CandleInterval       string  `mapstructure:"candle_interval" validate:"required,interval"`
}

// MarketDataConfig represents candle provider configuration
type MarketDataConfig struct {
	Provider               string  `mapstructure:"provider" validate:"required,providerkind"`
	DataDir                string  `mapstructure:"data_dir"`
	BaseURL                string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey                 string  `mapstructure:"api_key"`
	RateLimit              float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst                  int     `mapstructure:"burst" validate:"gte=0"`
	Retries                int     `mapstructure:"retries" validate:"gte=0"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	CircuitCooldownSeconds int     `mapstructure:"circuit_cooldown_seconds" validate:"gte=0"`
	CacheTTLSeconds        int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxSize           int     `mapstructure:"cache_max_size" validate:"gte=0"`
}

// OutputConfig represents where results and summaries are written
type OutputConfig struct {
	Format      string `mapstructure:"format" validate:"required,sinkformat"`
	ResultsPath string `mapstructure:"results_path"`
	SummaryPath string `mapstructure:"summary_path"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig represents recurring batch runs
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// SecretsConfig points at an optional AWS Secrets Manager secret
type SecretsConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesDatabase reports whether any component needs a PostgreSQL connection
func (c *Config) UsesDatabase() bool {
	return c.MarketData.Provider == ProviderPostgres || c.Output.Format == FormatPostgres
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the zone naive signal timestamps are read in
func (c *Config) Location() (*time.Location, error) {
	if c.Input.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Input.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid input timezone %q: %w", c.Input.Timezone, err)
	}
	return loc, nil
}
