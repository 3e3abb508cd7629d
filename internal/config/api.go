package config

import (
	"fmt"

	"github.com/JaimeStill/tally/pkg/envs"
	"github.com/JaimeStill/tally/pkg/formatting"
	"github.com/JaimeStill/tally/pkg/middleware"
	"github.com/JaimeStill/tally/pkg/pagination"
)

const (
	EnvAPIBasePath      = "TALLY_API_BASE_PATH"
	EnvAPIMaxUploadSize = "TALLY_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = "10MB"
	// Receipt photos are held in memory and stored in checkpoints, so the
	// ceiling stays well below what a multipart body could carry.
	maxUploadCeiling = 32 << 20
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TALLY_CORS_ENABLED",
	Origins:          "TALLY_CORS_ORIGINS",
	AllowedMethods:   "TALLY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TALLY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TALLY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TALLY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "TALLY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TALLY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig covers the /api module: its mount point, the intake image
// size limit, CORS and receipt list paging.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes is only meaningful after Finalize.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxUploadSize)
	return n
}

func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}

	envs.String(&c.BasePath, EnvAPIBasePath)
	envs.String(&c.MaxUploadSize, EnvAPIMaxUploadSize)

	n, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if n < 1024 || n > maxUploadCeiling {
		return fmt.Errorf("invalid max_upload_size: %s is outside 1 KB to %s",
			c.MaxUploadSize, formatting.FormatBytes(maxUploadCeiling, 0))
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
