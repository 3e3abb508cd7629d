package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/tally/pkg/envs"
)

const (
	EnvServerHost              = "TALLY_SERVER_HOST"
	EnvServerPort              = "TALLY_SERVER_PORT"
	EnvServerReadTimeout       = "TALLY_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "TALLY_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "TALLY_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "TALLY_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "TALLY_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig controls the HTTP listener. Timeouts are Go duration
// strings. WriteTimeout bounds a whole /receipts/process call, which runs
// classification and extraction inline, so it defaults well above the
// workflow call timeout.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return durationOf(c.ReadTimeout) }
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return durationOf(c.ReadHeaderTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return durationOf(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration { return durationOf(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return durationOf(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range c.timeouts(overlay) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, f := range c.timeouts(nil) {
		if *f.dst == "" {
			*f.dst = f.fallback
		}
	}
}

func (c *ServerConfig) loadEnv() {
	envs.String(&c.Host, EnvServerHost)
	envs.Int(&c.Port, EnvServerPort)
	for _, f := range c.timeouts(nil) {
		envs.String(f.dst, f.env)
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.timeouts(nil) {
		d, err := time.ParseDuration(*f.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: negative duration", f.key)
		}
	}
	return nil
}

type timeoutField struct {
	key      string
	env      string
	fallback string
	dst      *string
	src      *string
}

// timeouts lists the duration fields. src is populated from overlay when
// it is non-nil.
func (c *ServerConfig) timeouts(overlay *ServerConfig) []timeoutField {
	fields := []timeoutField{
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout, nil},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout, nil},
		{"write_timeout", EnvServerWriteTimeout, "5m", &c.WriteTimeout, nil},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout, nil},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout, nil},
	}
	if overlay != nil {
		fields[0].src = &overlay.ReadTimeout
		fields[1].src = &overlay.ReadHeaderTimeout
		fields[2].src = &overlay.WriteTimeout
		fields[3].src = &overlay.IdleTimeout
		fields[4].src = &overlay.ShutdownTimeout
	}
	return fields
}

func durationOf(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
