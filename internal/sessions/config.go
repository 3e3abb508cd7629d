package sessions

import (
	"fmt"
	"time"

	"github.com/JaimeStill/tally/pkg/envs"
)

// Supported values for Config.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config selects and tunes the checkpoint backend and its eviction policy.
type Config struct {
	Backend       string      `toml:"backend"`
	SQLitePath    string      `toml:"sqlite_path"`
	Redis         RedisConfig `toml:"redis"`
	CompletedTTL  string      `toml:"completed_ttl"`
	AbandonedTTL  string      `toml:"abandoned_ttl"`
	PruneInterval string      `toml:"prune_interval"`
}

// RedisConfig holds connection parameters for the redis backend.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       string
	RedisPrefix   string
	CompletedTTL  string
	AbandonedTTL  string
	PruneInterval string
}

// CompletedTTLDuration returns CompletedTTL as a time.Duration.
func (c *Config) CompletedTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CompletedTTL)
	return d
}

// AbandonedTTLDuration returns AbandonedTTL as a time.Duration.
func (c *Config) AbandonedTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.AbandonedTTL)
	return d
}

// PruneIntervalDuration returns PruneInterval as a time.Duration.
func (c *Config) PruneIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PruneInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.SQLitePath != "" {
		c.SQLitePath = overlay.SQLitePath
	}
	if overlay.Redis.Addr != "" {
		c.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		c.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		c.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.KeyPrefix != "" {
		c.Redis.KeyPrefix = overlay.Redis.KeyPrefix
	}
	if overlay.CompletedTTL != "" {
		c.CompletedTTL = overlay.CompletedTTL
	}
	if overlay.AbandonedTTL != "" {
		c.AbandonedTTL = overlay.AbandonedTTL
	}
	if overlay.PruneInterval != "" {
		c.PruneInterval = overlay.PruneInterval
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendPostgres
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/sessions.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "tally:"
	}
	if c.CompletedTTL == "" {
		c.CompletedTTL = "24h"
	}
	if c.AbandonedTTL == "" {
		c.AbandonedTTL = "168h"
	}
	if c.PruneInterval == "" {
		c.PruneInterval = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	envs.String(&c.Backend, env.Backend)
	envs.String(&c.SQLitePath, env.SQLitePath)
	envs.String(&c.Redis.Addr, env.RedisAddr)
	envs.String(&c.Redis.Password, env.RedisPassword)
	envs.Int(&c.Redis.DB, env.RedisDB)
	envs.String(&c.Redis.KeyPrefix, env.RedisPrefix)
	envs.String(&c.CompletedTTL, env.CompletedTTL)
	envs.String(&c.AbandonedTTL, env.AbandonedTTL)
	envs.String(&c.PruneInterval, env.PruneInterval)
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendPostgres, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}

	for name, v := range map[string]string{
		"completed_ttl":  c.CompletedTTL,
		"abandoned_ttl":  c.AbandonedTTL,
		"prune_interval": c.PruneInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", name)
		}
	}
	return nil
}
