package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Candle provider kinds
const (
	ProviderCSV      = "csv"
	ProviderHTTP     = "http"
	ProviderPostgres = "postgres"
)

// Result sink formats
const (
	FormatJSONL    = "jsonl"
	FormatCSV      = "csv"
	FormatPostgres = "postgres"
)

var intervalPattern = regexp.MustCompile(`^[1-9][0-9]*[mhdw]$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("providerkind", validateProviderKind)
	_ = v.RegisterValidation("sinkformat", validateSinkFormat)
	_ = v.RegisterValidation("interval", validateInterval)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateProviderKind validates the candle provider field
func validateProviderKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ProviderCSV, ProviderHTTP, ProviderPostgres:
		return true
	default:
		return false
	}
}

// validateSinkFormat validates the output format field
func validateSinkFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case FormatJSONL, FormatCSV, FormatPostgres:
		return true
	default:
		return false
	}
}

// validateInterval validates kline interval strings such as 1m, 15m, 4h, 1d
func validateInterval(fl validator.FieldLevel) bool {
	return intervalPattern.MatchString(fl.Field().String())
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	switch cfg.MarketData.Provider {
	case ProviderCSV:
		if cfg.MarketData.DataDir == "" {
			return fmt.Errorf("market_data.data_dir is required for the csv provider")
		}
	case ProviderHTTP:
		if cfg.MarketData.BaseURL == "" {
			return fmt.Errorf("market_data.base_url is required for the http provider")
		}
	}

	if cfg.MarketData.CacheTTLSeconds > 0 && cfg.MarketData.CacheMaxSize == 0 {
		return fmt.Errorf("market_data.cache_max_size must be set when caching is enabled")
	}

	if cfg.Output.Format != FormatPostgres && cfg.Output.ResultsPath == "" {
		return fmt.Errorf("output.results_path is required for the %s format", cfg.Output.Format)
	}

	if cfg.UsesDatabase() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when postgres is used")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Port == 0 || cfg.Metrics.Path == "") {
		return fmt.Errorf("metrics port and path are required when metrics are enabled")
	}

	if cfg.Schedule.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron %q: %w", cfg.Schedule.Cron, err)
		}
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "providerkind":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: csv, http, postgres\n", field)
		case "sinkformat":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: jsonl, csv, postgres\n", field)
		case "interval":
			errMsg += fmt.Sprintf("- Field '%s' must be a kline interval such as 1m or 4h, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
