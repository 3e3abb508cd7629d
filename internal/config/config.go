package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/tally/internal/notify"
	"github.com/JaimeStill/tally/internal/reminders"
	"github.com/JaimeStill/tally/internal/sessions"
	"github.com/JaimeStill/tally/internal/vision"
	"github.com/JaimeStill/tally/pkg/database"
	"github.com/JaimeStill/tally/pkg/envs"
	"github.com/JaimeStill/tally/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTallyEnv             = "TALLY_ENV"
	EnvTallyShutdownTimeout = "TALLY_SHUTDOWN_TIMEOUT"
	EnvTallyVersion         = "TALLY_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "TALLY_DB_HOST",
	Port:            "TALLY_DB_PORT",
	Name:            "TALLY_DB_NAME",
	User:            "TALLY_DB_USER",
	Password:        "TALLY_DB_PASSWORD",
	SSLMode:         "TALLY_DB_SSL_MODE",
	MaxOpenConns:    "TALLY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "TALLY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "TALLY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TALLY_DB_CONN_TIMEOUT",
	ConnRetryWindow: "TALLY_DB_CONN_RETRY_WINDOW",
}

var storageEnv = &storage.Env{
	ContainerName:    "TALLY_STORAGE_CONTAINER_NAME",
	ConnectionString: "TALLY_STORAGE_CONNECTION_STRING",
	AccountURL:       "TALLY_STORAGE_ACCOUNT_URL",
}

var sessionsEnv = &sessions.Env{
	Backend:       "TALLY_SESSIONS_BACKEND",
	SQLitePath:    "TALLY_SESSIONS_SQLITE_PATH",
	RedisAddr:     "TALLY_SESSIONS_REDIS_ADDR",
	RedisPassword: "TALLY_SESSIONS_REDIS_PASSWORD",
	RedisDB:       "TALLY_SESSIONS_REDIS_DB",
	RedisPrefix:   "TALLY_SESSIONS_REDIS_KEY_PREFIX",
	CompletedTTL:  "TALLY_SESSIONS_COMPLETED_TTL",
	AbandonedTTL:  "TALLY_SESSIONS_ABANDONED_TTL",
	PruneInterval: "TALLY_SESSIONS_PRUNE_INTERVAL",
}

var visionEnv = &vision.Env{
	BaseURL:        "TALLY_VISION_BASE_URL",
	APIKey:         "TALLY_VISION_API_KEY",
	Model:          "TALLY_VISION_MODEL",
	Detail:         "TALLY_VISION_DETAIL",
	MaxRetries:     "TALLY_VISION_MAX_RETRIES",
	InitialBackoff: "TALLY_VISION_INITIAL_BACKOFF",
	Timeout:        "TALLY_VISION_TIMEOUT",
}

var notifierEnv = &notify.Env{
	BaseURL:       "TALLY_NOTIFIER_BASE_URL",
	PhoneNumberID: "TALLY_NOTIFIER_PHONE_NUMBER_ID",
	AccessToken:   "TALLY_NOTIFIER_ACCESS_TOKEN",
	Timeout:       "TALLY_NOTIFIER_TIMEOUT",
}

var remindersEnv = &reminders.Env{
	BaseURL:       "TALLY_REMINDERS_BASE_URL",
	APIKey:        "TALLY_REMINDERS_API_KEY",
	EventTypeID:   "TALLY_REMINDERS_EVENT_TYPE_ID",
	AttendeeName:  "TALLY_REMINDERS_ATTENDEE_NAME",
	AttendeeEmail: "TALLY_REMINDERS_ATTENDEE_EMAIL",
	Guests:        "TALLY_REMINDERS_GUESTS",
	TimeZone:      "TALLY_REMINDERS_TIME_ZONE",
	Language:      "TALLY_REMINDERS_LANGUAGE",
	Hour:          "TALLY_REMINDERS_HOUR",
	Timeout:       "TALLY_REMINDERS_TIMEOUT",
}

// Config is the root configuration for the Tally service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Sessions        sessions.Config  `toml:"sessions"`
	Workflow        WorkflowConfig   `toml:"workflow"`
	Vision          vision.Config    `toml:"vision"`
	Notifier        notify.Config    `toml:"notifier"`
	Reminders       reminders.Config `toml:"reminders"`
	Logging         LoggingConfig    `toml:"logging"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the TALLY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTallyEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return durationOf(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom behaves like Load with config files resolved relative to dir.
func LoadFrom(dir string) (*Config, error) {
	cfg, err := read(dir)
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the [database] section, with the same file
// layering and TALLY_DB_* overrides as LoadFrom. Tools that never touch
// storage or the vision API use it to skip their validation.
func LoadDatabase(dir string) (*database.Config, error) {
	cfg, err := read(dir)
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg.Database, nil
}

// read parses the base file and the TALLY_ENV overlay without finalizing.
// Missing files are not an error.
func read(dir string) (*Config, error) {
	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Sessions.Merge(&overlay.Sessions)
	c.Workflow.Merge(&overlay.Workflow)
	c.Vision.Merge(&overlay.Vision)
	c.Notifier.Merge(&overlay.Notifier)
	c.Reminders.Merge(&overlay.Reminders)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Sessions.Finalize(sessionsEnv); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Vision.Finalize(visionEnv); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	if err := c.Notifier.Finalize(notifierEnv); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	if err := c.Reminders.Finalize(remindersEnv); err != nil {
		return fmt.Errorf("reminders: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	envs.String(&c.ShutdownTimeout, EnvTallyShutdownTimeout)
	envs.String(&c.Version, EnvTallyVersion)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvTallyEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
