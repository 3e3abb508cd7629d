package middleware

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/JaimeStill/tally/pkg/envs"
)

// AnyOrigin in Origins admits every origin.
const AnyOrigin = "*"

// CORSConfig is the browser access policy for the API module. Intake is
// usually called server to server by the messaging webhook, so CORS is off
// unless enabled.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override CORSConfig.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies overlay. The booleans always win because TOML cannot tell
// false from unset; lists and MaxAge apply only when present.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.AllowedMethods != nil {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if overlay.AllowedHeaders != nil {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) allowsAny() bool {
	return slices.Contains(c.Origins, AnyOrigin)
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization", HeaderRequestID}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	envs.Bool(&c.Enabled, env.Enabled)
	envs.List(&c.Origins, env.Origins)
	envs.List(&c.AllowedMethods, env.AllowedMethods)
	envs.List(&c.AllowedHeaders, env.AllowedHeaders)
	envs.Bool(&c.AllowCredentials, env.AllowCredentials)
	envs.Int(&c.MaxAge, env.MaxAge)
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && c.allowsAny() {
		return fmt.Errorf("allow_credentials cannot be combined with origin %q", AnyOrigin)
	}
	for _, o := range c.Origins {
		if o == AnyOrigin {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			return fmt.Errorf("invalid origin %q: want scheme://host[:port]", o)
		}
	}
	return nil
}
