package reminders

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/JaimeStill/tally/pkg/envs"
)

// Config holds cal.com booking settings. Scheduling is disabled unless an
// API key, event type and attendee email are all present.
type Config struct {
	BaseURL       string   `toml:"base_url"`
	APIKey        string   `toml:"api_key"`
	EventTypeID   int      `toml:"event_type_id"`
	AttendeeName  string   `toml:"attendee_name"`
	AttendeeEmail string   `toml:"attendee_email"`
	Guests        []string `toml:"guests"`
	TimeZone      string   `toml:"time_zone"`
	Language      string   `toml:"language"`
	Hour          int      `toml:"hour"`
	Timeout       string   `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL       string
	APIKey        string
	EventTypeID   string
	AttendeeName  string
	AttendeeEmail string
	Guests        string
	TimeZone      string
	Language      string
	Hour          string
	Timeout       string
}

// Enabled reports whether bookings can be created.
func (c *Config) Enabled() bool {
	return c.APIKey != "" && c.EventTypeID > 0 && c.AttendeeEmail != ""
}

// Location loads TimeZone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
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
	if overlay.EventTypeID != 0 {
		c.EventTypeID = overlay.EventTypeID
	}
	if overlay.AttendeeName != "" {
		c.AttendeeName = overlay.AttendeeName
	}
	if overlay.AttendeeEmail != "" {
		c.AttendeeEmail = overlay.AttendeeEmail
	}
	if len(overlay.Guests) > 0 {
		c.Guests = overlay.Guests
	}
	if overlay.TimeZone != "" {
		c.TimeZone = overlay.TimeZone
	}
	if overlay.Language != "" {
		c.Language = overlay.Language
	}
	if overlay.Hour != 0 {
		c.Hour = overlay.Hour
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.cal.com/v2"
	}
	if c.AttendeeName == "" {
		c.AttendeeName = "Tally user"
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/Lima"
	}
	if c.Language == "" {
		c.Language = "es"
	}
	if c.Hour == 0 {
		c.Hour = 9
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	envs.String(&c.BaseURL, env.BaseURL)
	envs.String(&c.APIKey, env.APIKey)
	envs.Int(&c.EventTypeID, env.EventTypeID)
	envs.String(&c.AttendeeName, env.AttendeeName)
	envs.String(&c.AttendeeEmail, env.AttendeeEmail)
	envs.List(&c.Guests, env.Guests)
	envs.String(&c.TimeZone, env.TimeZone)
	envs.String(&c.Language, env.Language)
	envs.Int(&c.Hour, env.Hour)
	envs.String(&c.Timeout, env.Timeout)
}

func (c *Config) validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", c.Hour)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone: %w", err)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
