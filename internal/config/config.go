package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// MarketplaceConfig holds direct-API polling configuration
type MarketplaceConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Queries      []string      `mapstructure:"queries"`
	Limit        int           `mapstructure:"limit"`
	FetchDetails bool          `mapstructure:"fetch_details"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Enabled      bool          `mapstructure:"enabled"`
}

// WebhookConfig holds the webhook receiver configuration
type WebhookConfig struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Enabled    bool          `mapstructure:"enabled"`
}

// PipelineConfig holds scoring and gating behavior configuration
type PipelineConfig struct {
	ScoreThreshold int           `mapstructure:"score_threshold"`
	AlertCooldown  time.Duration `mapstructure:"alert_cooldown"`
	SpamWindow     time.Duration `mapstructure:"spam_window"`
	SpamThreshold  int           `mapstructure:"spam_threshold"`
	RaceWindow     time.Duration `mapstructure:"race_window"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath      string `mapstructure:"db_path"`
	MaxRaceRows int    `mapstructure:"max_race_rows"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("DEALSCOUT")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Marketplace defaults
	v.SetDefault("marketplace.base_url", "https://api.ebay.com/buy/browse/v1")
	v.SetDefault("marketplace.poll_interval", "30s")
	v.SetDefault("marketplace.queries", []string{"14k gold", "sterling silver"})
	v.SetDefault("marketplace.limit", 50)
	v.SetDefault("marketplace.fetch_details", false)
	v.SetDefault("marketplace.timeout", "15s")
	v.SetDefault("marketplace.enabled", true)

	// Webhook defaults
	v.SetDefault("webhook.listen_addr", ":8080")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.enabled", true)

	// Pipeline defaults
	v.SetDefault("pipeline.score_threshold", 70)
	v.SetDefault("pipeline.alert_cooldown", "24h")
	v.SetDefault("pipeline.spam_window", "10s")
	v.SetDefault("pipeline.spam_threshold", 2)
	v.SetDefault("pipeline.race_window", "5m")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/dealscout.db")
	v.SetDefault("storage.max_race_rows", 10000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Marketplace config
	if c.Marketplace.Enabled {
		if c.Marketplace.BaseURL == "" {
			return fmt.Errorf("marketplace.base_url is required when polling is enabled")
		}
		if c.Marketplace.PollInterval < 5*time.Second {
			return fmt.Errorf("marketplace.poll_interval must be at least 5 seconds")
		}
		if len(c.Marketplace.Queries) == 0 {
			return fmt.Errorf("marketplace.queries must contain at least one query")
		}
		if c.Marketplace.Limit < 1 || c.Marketplace.Limit > 200 {
			return fmt.Errorf("marketplace.limit must be between 1 and 200")
		}
	}

	// Validate Webhook config
	if c.Webhook.Enabled && c.Webhook.ListenAddr == "" {
		return fmt.Errorf("webhook.listen_addr is required when the webhook is enabled")
	}
	if !c.Marketplace.Enabled && !c.Webhook.Enabled {
		return fmt.Errorf("at least one ingestion source must be enabled")
	}

	// Validate Pipeline config
	if c.Pipeline.ScoreThreshold < 1 || c.Pipeline.ScoreThreshold > 100 {
		return fmt.Errorf("pipeline.score_threshold must be between 1 and 100")
	}
	if c.Pipeline.AlertCooldown < 1*time.Minute {
		return fmt.Errorf("pipeline.alert_cooldown must be at least 1 minute")
	}
	if c.Pipeline.SpamWindow < 1*time.Second {
		return fmt.Errorf("pipeline.spam_window must be at least 1 second")
	}
	if c.Pipeline.SpamThreshold < 1 {
		return fmt.Errorf("pipeline.spam_threshold must be at least 1")
	}
	if c.Pipeline.RaceWindow < 1*time.Second {
		return fmt.Errorf("pipeline.race_window must be at least 1 second")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxRaceRows < 100 {
		return fmt.Errorf("storage.max_race_rows must be at least 100")
	}

	// Validate Logging config
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
