// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, session checkpoints)
// that domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/sessions"
	"github.com/JaimeStill/tally/pkg/database"
	"github.com/JaimeStill/tally/pkg/lifecycle"
	"github.com/JaimeStill/tally/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, and workflow checkpoints.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Sessions  sessions.Store
	Janitor   *sessions.Janitor
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(&cfg.Logging, os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	checkpoints, err := sessions.Open(&cfg.Sessions, db.Connection(), logger)
	if err != nil {
		return nil, fmt.Errorf("sessions init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Sessions:  checkpoints,
		Janitor:   sessions.NewJanitor(checkpoints, &cfg.Sessions, logger),
	}, nil
}

// NewLogger builds the process logger from the logging config.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers every system's lifecycle hooks and starts the checkpoint
// janitor. Readiness waits on the database, which backs both the receipt
// repository and the default checkpoint store.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	i.Lifecycle.RequireReady("database", i.Database)
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Sessions.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("sessions start failed: %w", err)
	}
	i.Janitor.Start(i.Lifecycle)
	return nil
}
