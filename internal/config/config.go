// Package config loads the notebot configuration: the core bot settings plus
// storage, Redis and conversation state.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/notebot/core/config"
	coredatabase "github.com/m3rciful/notebot/core/database"
	coreredis "github.com/m3rciful/notebot/core/redis"
)

// DefaultStateTTLHours expires conversations abandoned for a day.
const DefaultStateTTLHours = 24

// StateConfig controls the persisted conversation state.
type StateConfig struct {
	// TTLHours expires idle conversations in Redis; 0 picks the default and
	// a negative value keeps them forever.
	TTLHours int    `yaml:"ttl_hours" envconfig:"TTL_HOURS"`
	Prefix   string `yaml:"prefix" envconfig:"PREFIX"`
}

// TTL returns the state expiry, zero meaning none.
func (s StateConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 0
	}
	return time.Duration(s.TTLHours) * time.Hour
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database" envconfig:"DB"`
	Redis    coreredis.Config    `yaml:"redis" envconfig:"REDIS"`
	State    StateConfig         `yaml:"state" envconfig:"STATE"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// UseRedisLimiter reports whether route throttling should go through Redis.
func (c *Config) UseRedisLimiter() bool {
	switch c.RateLimit.Backend {
	case "memory":
		return false
	case "redis":
		return true
	default:
		return c.Redis.Configured()
	}
}

// Load reads the YAML file at path, overlays the environment and validates
// the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	c.Redis.Normalize()
	if c.RateLimit.Backend == "redis" && !c.Redis.Configured() {
		return fmt.Errorf("rate_limit.backend is redis but redis.addr and redis.url are empty")
	}
	if c.State.TTLHours == 0 {
		c.State.TTLHours = DefaultStateTTLHours
	}
	c.State.Prefix = strings.TrimSpace(c.State.Prefix)
	return nil
}
