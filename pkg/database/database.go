// Package database owns the PostgreSQL pool behind the receipt repository
// and the postgres checkpoint store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/tally/pkg/lifecycle"
)

// System is a pgx-backed *sql.DB that reports ready once the first ping
// succeeds.
type System interface {
	lifecycle.ReadinessChecker

	Connection() *sql.DB
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	retryWindow time.Duration
	ready       atomic.Bool
}

// New configures the pool without dialing.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database", "host", cfg.Host, "name", cfg.Name),
		connTimeout: cfg.ConnTimeoutDuration(),
		retryWindow: cfg.ConnRetryWindowDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

// Start pings in a startup hook, retrying with exponential backoff for up
// to the retry window so the service can come up alongside its database.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.waitForPing(lc.Context()); err != nil {
			d.logger.Error("database unreachable", "error", err)
			return
		}
		d.ready.Store(true)
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.ready.Store(false)

		stats := d.conn.Stats()
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed", "open", stats.OpenConnections, "wait_count", stats.WaitCount)
	})

	return nil
}

func (d *database) waitForPing(ctx context.Context) error {
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, d.connTimeout)
		defer cancel()
		return d.conn.PingContext(pingCtx)
	}

	if d.retryWindow <= 0 {
		return ping()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = d.retryWindow

	notify := func(err error, wait time.Duration) {
		d.logger.Warn("database ping failed, retrying", "error", err, "wait", wait)
	}

	return backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify)
}
