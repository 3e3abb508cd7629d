package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/tally/pkg/envs"
)

// WorkflowConfig tunes the receipt workflow engine.
type WorkflowConfig struct {
	AttemptLimit int    `toml:"attempt_limit"`
	CallTimeout  string `toml:"call_timeout"`
	MaxSteps     int    `toml:"max_steps"`
	UploadFolder string `toml:"upload_folder"`
}

// CallTimeoutDuration returns CallTimeout as a time.Duration.
func (c *WorkflowConfig) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.AttemptLimit != 0 {
		c.AttemptLimit = overlay.AttemptLimit
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
	if overlay.MaxSteps != 0 {
		c.MaxSteps = overlay.MaxSteps
	}
	if overlay.UploadFolder != "" {
		c.UploadFolder = overlay.UploadFolder
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.AttemptLimit == 0 {
		c.AttemptLimit = 3
	}
	if c.CallTimeout == "" {
		c.CallTimeout = "45s"
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 32
	}
	if c.UploadFolder == "" {
		c.UploadFolder = "receipts"
	}
}

func (c *WorkflowConfig) loadEnv() {
	envs.Int(&c.AttemptLimit, "TALLY_WORKFLOW_ATTEMPT_LIMIT")
	envs.String(&c.CallTimeout, "TALLY_WORKFLOW_CALL_TIMEOUT")
	envs.Int(&c.MaxSteps, "TALLY_WORKFLOW_MAX_STEPS")
	envs.String(&c.UploadFolder, "TALLY_WORKFLOW_UPLOAD_FOLDER")
}

func (c *WorkflowConfig) validate() error {
	if c.AttemptLimit < 1 {
		return fmt.Errorf("attempt_limit must be at least 1: %d", c.AttemptLimit)
	}
	if d, err := time.ParseDuration(c.CallTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid call_timeout: %q", c.CallTimeout)
	}
	// the shortest path through the graph is seven nodes
	if c.MaxSteps < 8 {
		return fmt.Errorf("max_steps must be at least 8: %d", c.MaxSteps)
	}
	if c.UploadFolder == "" {
		return errors.New("upload_folder is required")
	}
	return nil
}
