// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Context    ContextConfig    `mapstructure:"context"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TelegramConfig holds the chat transport configuration.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// PolymarketConfig holds the Gamma API configuration.
type PolymarketConfig struct {
	GammaAPIURL    string        `mapstructure:"gamma_api_url"`
	SiteURL        string        `mapstructure:"site_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BootstrapLimit int           `mapstructure:"bootstrap_limit"`
	RefreshLimit   int           `mapstructure:"refresh_limit"`
	PollLimit      int           `mapstructure:"poll_limit"`
}

// DedupConfig holds the volume heuristics of the deduplication engine.
// Both thresholds are policy constants with no derivation beyond observed
// behavior of the feed; tune with care.
type DedupConfig struct {
	PreexistingVolume float64 `mapstructure:"preexisting_volume"`
	SuppressVolume    float64 `mapstructure:"suppress_volume"`
}

// ContextConfig holds the market-context enrichment configuration.
type ContextConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	MinResponseLen int           `mapstructure:"min_response_len"`
}

// NotifierConfig holds delivery pacing configuration.
type NotifierConfig struct {
	SendDelay time.Duration `mapstructure:"send_delay"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("POLYDICTIONS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.site_url", "https://polymarket.com")
	v.SetDefault("polymarket.poll_interval", "60s")
	v.SetDefault("polymarket.timeout", "15s")
	v.SetDefault("polymarket.bootstrap_limit", 100)
	v.SetDefault("polymarket.refresh_limit", 50)
	v.SetDefault("polymarket.poll_limit", 20)

	v.SetDefault("dedup.preexisting_volume", 10000.0)
	v.SetDefault("dedup.suppress_volume", 50000.0)

	v.SetDefault("context.timeout", "120s")
	v.SetDefault("context.max_retries", 1)
	v.SetDefault("context.retry_delay", "2s")
	v.SetDefault("context.min_response_len", 50)

	v.SetDefault("notifier.send_delay", "500ms")

	v.SetDefault("storage.data_dir", "./data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.SiteURL == "" {
		return fmt.Errorf("polymarket.site_url is required")
	}
	if c.Polymarket.PollInterval < time.Second {
		return fmt.Errorf("polymarket.poll_interval must be at least 1 second")
	}
	if c.Polymarket.Timeout <= 0 {
		return fmt.Errorf("polymarket.timeout must be positive")
	}
	if c.Polymarket.BootstrapLimit < 1 || c.Polymarket.BootstrapLimit > 500 {
		return fmt.Errorf("polymarket.bootstrap_limit must be between 1 and 500")
	}
	if c.Polymarket.RefreshLimit < 1 || c.Polymarket.RefreshLimit > 500 {
		return fmt.Errorf("polymarket.refresh_limit must be between 1 and 500")
	}
	if c.Polymarket.PollLimit < 1 || c.Polymarket.PollLimit > 100 {
		return fmt.Errorf("polymarket.poll_limit must be between 1 and 100")
	}

	if c.Dedup.PreexistingVolume < 0 {
		return fmt.Errorf("dedup.preexisting_volume must not be negative")
	}
	if c.Dedup.SuppressVolume < 0 {
		return fmt.Errorf("dedup.suppress_volume must not be negative")
	}

	if c.Context.Timeout <= 0 {
		return fmt.Errorf("context.timeout must be positive")
	}
	if c.Context.MaxRetries < 0 {
		return fmt.Errorf("context.max_retries must not be negative")
	}
	if c.Context.MinResponseLen < 0 {
		return fmt.Errorf("context.min_response_len must not be negative")
	}

	if c.Notifier.SendDelay < 0 {
		return fmt.Errorf("notifier.send_delay must not be negative")
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
