// Package config loads the storebot configuration from a YAML file with
// environment variable overrides. The result is passed down as constructor
// arguments; nothing in here is consulted as an ambient global after startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// DatabaseConfig holds ledger database connection settings.
type DatabaseConfig struct {
	// Driver selects the ledger backend: "postgres" or "memory" (dev only).
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// PaymentMethod describes one deposit rail offered to users.
type PaymentMethod struct {
	// Name is the label shown on the method keyboard, e.g. "bKash".
	Name string `yaml:"name"`
	// Instructions tell the user where to send funds and what proof to submit.
	Instructions string `yaml:"instructions"`
}

// ShopConfig carries storefront behaviour and the admin allow-list.
type ShopConfig struct {
	AdminIDs           []int64         `yaml:"admin_ids" envconfig:"SHOP_ADMIN_IDS"`
	CurrencySymbol     string          `yaml:"currency_symbol"`
	SupportContact     string          `yaml:"support_contact"`
	SessionIdleMinutes int             `yaml:"session_idle_minutes" envconfig:"SHOP_SESSION_IDLE_MINUTES"`
	PaymentMethods     []PaymentMethod `yaml:"payment_methods"`
}

// SessionsConfig selects the session backend.
type SessionsConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	RedisAddr string `yaml:"redis_addr" envconfig:"SESSIONS_REDIS_ADDR"`
}

// MetricsConfig controls the prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Listen  string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// EventsConfig controls the kafka domain-event publisher.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled" envconfig:"EVENTS_ENABLED"`
	Brokers []string `yaml:"brokers" envconfig:"EVENTS_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"EVENTS_TOPIC"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Shop      ShopConfig      `yaml:"shop"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Events    EventsConfig    `yaml:"events"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	driver := strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if driver == "" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "memory" {
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, memory", cfg.Database.Driver)
	}
	cfg.Database.Driver = driver
	if driver == "postgres" {
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 10
		}
	}

	if len(cfg.Shop.AdminIDs) == 0 {
		return fmt.Errorf("shop.admin_ids must list at least one admin")
	}
	if cfg.Shop.CurrencySymbol == "" {
		cfg.Shop.CurrencySymbol = "৳"
	}
	if cfg.Shop.SessionIdleMinutes <= 0 {
		cfg.Shop.SessionIdleMinutes = 30
	}
	if len(cfg.Shop.PaymentMethods) == 0 {
		return fmt.Errorf("shop.payment_methods must list at least one method")
	}
	for i, pm := range cfg.Shop.PaymentMethods {
		if strings.TrimSpace(pm.Name) == "" {
			return fmt.Errorf("shop.payment_methods[%d].name is required", i)
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Sessions.Backend))
	if backend == "" {
		backend = "memory"
	}
	switch backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.Sessions.RedisAddr) == "" {
			return fmt.Errorf("sessions.redis_addr is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", cfg.Sessions.Backend)
	}
	cfg.Sessions.Backend = backend

	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Listen) == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if cfg.Events.Enabled {
		if len(cfg.Events.Brokers) == 0 {
			return fmt.Errorf("events.brokers must be set when events are enabled")
		}
		if strings.TrimSpace(cfg.Events.Topic) == "" {
			cfg.Events.Topic = "storebot.events"
		}
	}
	return nil
}
