package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	content := `
telegram:
  bot_token: "test_token"

polymarket:
  poll_interval: 30s
  poll_limit: 10

dedup:
  preexisting_volume: 5000
  suppress_volume: 25000

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Polymarket.PollInterval != 30*time.Second {
		t.Errorf("Unexpected poll interval: %v", cfg.Polymarket.PollInterval)
	}
	if cfg.Polymarket.PollLimit != 10 {
		t.Errorf("Unexpected poll limit: %d", cfg.Polymarket.PollLimit)
	}
	if cfg.Dedup.SuppressVolume != 25000 {
		t.Errorf("Unexpected suppress volume: %v", cfg.Dedup.SuppressVolume)
	}

	// Defaults fill everything the file omits.
	if cfg.Polymarket.BootstrapLimit != 100 {
		t.Errorf("Unexpected bootstrap limit default: %d", cfg.Polymarket.BootstrapLimit)
	}
	if cfg.Context.Timeout != 120*time.Second {
		t.Errorf("Unexpected context timeout default: %v", cfg.Context.Timeout)
	}
	if cfg.Notifier.SendDelay != 500*time.Millisecond {
		t.Errorf("Unexpected send delay default: %v", cfg.Notifier.SendDelay)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{BotToken: "token"},
		Polymarket: PolymarketConfig{
			GammaAPIURL:    "https://example.com",
			SiteURL:        "https://example.com",
			PollInterval:   time.Minute,
			Timeout:        15 * time.Second,
			BootstrapLimit: 100,
			RefreshLimit:   50,
			PollLimit:      20,
		},
		Dedup: DedupConfig{
			PreexistingVolume: 10000,
			SuppressVolume:    50000,
		},
		Context: ContextConfig{
			Timeout:        120 * time.Second,
			MaxRetries:     1,
			RetryDelay:     2 * time.Second,
			MinResponseLen: 50,
		},
		Notifier: NotifierConfig{SendDelay: 500 * time.Millisecond},
		Storage:  StorageConfig{DataDir: "./data"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"poll interval too short", func(c *Config) { c.Polymarket.PollInterval = 100 * time.Millisecond }},
		{"poll limit zero", func(c *Config) { c.Polymarket.PollLimit = 0 }},
		{"negative suppress volume", func(c *Config) { c.Dedup.SuppressVolume = -1 }},
		{"missing data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("baseline config should validate: %v", err)
	}
}
