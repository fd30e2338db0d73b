// Package config holds the settings shared by every bot built on core:
// Telegram transport, logging, throttling, the side HTTP port and the
// outbound sender. Applications embed Config in their own struct.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback = "callback" // inline button presses
	UpdateMessage  = "message"  // commands, text and any other message
)

// DefaultRateLimitIntervalMS applies to routes without their own interval.
const DefaultRateLimitIntervalMS = 200

type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"TOKEN" validate:"required"`
	// Admins may run admin commands and get the startup notice.
	Admins  []int64 `yaml:"admins" envconfig:"ADMINS" validate:"dive,gt=0"`
	RunMode string  `yaml:"run_mode" envconfig:"RUN_MODE" validate:"oneof=webhook longpoll"`
	// LongPollTimeoutSeconds of 0 picks the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"LONGPOLL_TIMEOUT_SECONDS" validate:"gte=0"`
}

type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"URL"`
	Listen string `yaml:"listen" envconfig:"LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT" validate:"gte=0,lte=65535"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL"`
	Format    string `yaml:"format" envconfig:"FORMAT"`
	KeysOrder string `yaml:"keys_order" envconfig:"KEYS_ORDER"`
	// DebugSample is "n/d" or "d"; "0" logs every sampled debug event.
	DebugSample string `yaml:"debug_sample" envconfig:"DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"BOT_FILE"`
	// Profile is "prod", "dev" or "debug"; dev and debug default to kv lines.
	Profile string `yaml:"profile" envconfig:"PROFILE"`
}

// RateLimitConfig is the default per-route throttle. ExcludeUpdates lists
// update kinds that skip the default interval; routes declaring their own
// interval are throttled regardless.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"INTERVAL_MS" validate:"gte=0"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"EXCLUDE_UPDATES" validate:"dive,omitempty,oneof=callback message"`
	// Backend is "memory" or "redis"; empty picks redis when it is configured.
	Backend string `yaml:"backend" envconfig:"BACKEND" validate:"omitempty,oneof=memory redis"`
}

// Interval returns the default throttle interval.
func (r RateLimitConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// Excludes reports whether kind is listed in ExcludeUpdates.
func (r RateLimitConfig) Excludes(kind string) bool {
	return slices.Contains(r.ExcludeUpdates, kind)
}

// HTTPConfig is the side port serving health and metrics. An empty Listen
// disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"LISTEN"`
}

// SenderConfig sizes the outbound worker pool. Zero values pick defaults.
type SenderConfig struct {
	Workers        int `yaml:"workers" envconfig:"WORKERS" validate:"gte=0,lte=64"`
	QueueSize      int `yaml:"queue_size" envconfig:"QUEUE_SIZE" validate:"gte=0"`
	MaxRetries     int `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"gte=0,lte=10"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"RETRY_BACKOFF_MS" validate:"gte=0"`
}

// RetryBackoff returns the base backoff between send attempts.
func (s SenderConfig) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffMS) * time.Millisecond
}

type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram" envconfig:"TELEGRAM"`
	Webhook   WebhookConfig   `yaml:"webhook" envconfig:"WEBHOOK"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOG"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Sender    SenderConfig    `yaml:"sender" envconfig:"SENDER"`
}

// Load reads and validates a core-only configuration.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto fills target from the YAML file at path, then from the
// environment. A ./.env file is read first; variables already present in
// the process environment win over it.
func LoadInto(path string, target any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// IsAdmin reports whether userID is listed in telegram.admins.
func (c *Config) IsAdmin(userID int64) bool {
	return c != nil && slices.Contains(c.Telegram.Admins, userID)
}
