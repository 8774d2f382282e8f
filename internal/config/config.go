package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Price     PriceConfig     `yaml:"price" mapstructure:"price"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	DirectAPI DirectAPIConfig `yaml:"directapi" mapstructure:"directapi"`
	Compare   CompareConfig   `yaml:"compare" mapstructure:"compare"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// FetchConfig configures the product page fetcher.
type FetchConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerHost  float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
	// RetryAttempts is the total tries per page; 1 disables retries.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// PriceConfig configures the price normalizer.
type PriceConfig struct {
	// DefaultCurrency applies when no symbol is detected in price text.
	DefaultCurrency string `yaml:"default_currency" mapstructure:"default_currency"`
}

// AnthropicConfig holds Anthropic API settings for AI-assisted extraction.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	HTMLBudget int    `yaml:"html_budget" mapstructure:"html_budget"`
}

// DirectAPIConfig configures retailer direct-API lookups.
type DirectAPIConfig struct {
	PlayStationBaseURL string `yaml:"playstation_base_url" mapstructure:"playstation_base_url"`
}

// CompareConfig configures the price-comparison synthesizer.
type CompareConfig struct {
	// CatalogPath points to an optional YAML retailer catalog that
	// replaces the built-in one.
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// HistoryConfig configures the scrape history store.
type HistoryConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BatchConfig configures batch scraping.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_body_bytes", 2<<20)
	v.SetDefault("fetch.rate_per_host", 5.0)
	v.SetDefault("fetch.burst", 5)
	v.SetDefault("fetch.retry_attempts", 2)
	v.SetDefault("price.default_currency", "€")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.html_budget", 50000)
	v.SetDefault("directapi.playstation_base_url", "https://direct.playstation.com/en-us/api/v1")
	v.SetDefault("history.driver", "memory")
	v.SetDefault("batch.max_concurrent", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
