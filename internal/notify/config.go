package notify

import (
	"fmt"
	"time"

	"github.com/JaimeStill/tally/pkg/envs"
)

// Config holds WhatsApp Cloud API settings. Without an access token and
// phone number id, messages are logged instead of sent.
type Config struct {
	BaseURL       string `toml:"base_url"`
	PhoneNumberID string `toml:"phone_number_id"`
	AccessToken   string `toml:"access_token"`
	Timeout       string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	Timeout       string
}

// Enabled reports whether a real sender can be built.
func (c *Config) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
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
	if overlay.PhoneNumberID != "" {
		c.PhoneNumberID = overlay.PhoneNumberID
	}
	if overlay.AccessToken != "" {
		c.AccessToken = overlay.AccessToken
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://graph.facebook.com/v21.0"
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
}

func (c *Config) loadEnv(env *Env) {
	envs.String(&c.BaseURL, env.BaseURL)
	envs.String(&c.PhoneNumberID, env.PhoneNumberID)
	envs.String(&c.AccessToken, env.AccessToken)
	envs.String(&c.Timeout, env.Timeout)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if (c.AccessToken == "") != (c.PhoneNumberID == "") {
		return fmt.Errorf("access_token and phone_number_id must be set together")
	}
	return nil
}
