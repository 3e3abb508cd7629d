package sessions

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/tally/pkg/lifecycle"
)

// Janitor periodically prunes completed and abandoned checkpoints.
type Janitor struct {
	store        Store
	interval     time.Duration
	completedTTL time.Duration
	abandonedTTL time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewJanitor creates a Janitor from the eviction settings in cfg.
// A zero TTL keeps that class of checkpoint forever.
func NewJanitor(store Store, cfg *Config, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:        store,
		interval:     cfg.PruneIntervalDuration(),
		completedTTL: cfg.CompletedTTLDuration(),
		abandonedTTL: cfg.AbandonedTTLDuration(),
		logger:       logger.With("system", "sessions", "component", "janitor"),
		now:          time.Now,
	}
}

// Start runs the prune loop in the background until shutdown.
// A zero interval disables pruning.
func (j *Janitor) Start(lc *lifecycle.Coordinator) {
	if j.interval <= 0 {
		j.logger.Info("session pruning disabled")
		return
	}

	lc.Background(func(ctx context.Context) {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.Sweep(ctx); err != nil {
					j.logger.Error("session prune failed", "error", err)
				}
			}
		}
	})
}

// Sweep runs one prune pass and returns the number of checkpoints removed.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	now := j.now()

	var req PruneRequest
	if j.completedTTL > 0 {
		req.CompletedBefore = now.Add(-j.completedTTL)
	}
	if j.abandonedTTL > 0 {
		req.AbandonedBefore = now.Add(-j.abandonedTTL)
	}
	if req.CompletedBefore.IsZero() && req.AbandonedBefore.IsZero() {
		return 0, nil
	}

	removed, err := j.store.Prune(ctx, req)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		j.logger.Info("pruned session checkpoints", "count", removed)
	}
	return removed, nil
}
