package vision

import (
	"fmt"
	"time"

	"github.com/JaimeStill/tally/pkg/envs"
)

// Config holds settings for an OpenAI-compatible chat completions endpoint
// with image input.
type Config struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Detail         string `toml:"detail"`
	MaxRetries     int    `toml:"max_retries"`
	InitialBackoff string `toml:"initial_backoff"`
	Timeout        string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	APIKey         string
	Model          string
	Detail         string
	MaxRetries     string
	InitialBackoff string
	Timeout        string
}

// InitialBackoffDuration returns InitialBackoff as a time.Duration.
func (c *Config) InitialBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.InitialBackoff)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
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
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Detail != "" {
		c.Detail = overlay.Detail
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.InitialBackoff != "" {
		c.InitialBackoff = overlay.InitialBackoff
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Detail == "" {
		c.Detail = "auto"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == "" {
		c.InitialBackoff = "500ms"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	envs.String(&c.BaseURL, env.BaseURL)
	envs.String(&c.APIKey, env.APIKey)
	envs.String(&c.Model, env.Model)
	envs.String(&c.Detail, env.Detail)
	envs.Int(&c.MaxRetries, env.MaxRetries)
	envs.String(&c.InitialBackoff, env.InitialBackoff)
	envs.String(&c.Timeout, env.Timeout)
}

func (c *Config) validate() error {
	switch c.Detail {
	case "auto", "low", "high":
	default:
		return fmt.Errorf("detail must be auto, low, or high: %s", c.Detail)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	for name, v := range map[string]string{"initial_backoff": c.InitialBackoff, "timeout": c.Timeout} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
