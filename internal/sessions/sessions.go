// Package sessions persists workflow checkpoints keyed by session id.
//
// A Store is agnostic of the state it holds: the workflow engine encodes its
// state as JSON and the store only enforces the version protocol. Commit is a
// compare-and-commit on Version, so two writers racing on one session cannot
// both succeed; the loser receives ErrConflict and may reload and retry.
package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JaimeStill/tally/pkg/lifecycle"
)

// Checkpoint is the durable record of one session.
// Next names the node the session resumes at; empty means the workflow completed.
type Checkpoint struct {
	SessionID string          `json:"session_id"`
	State     json.RawMessage `json:"state"`
	Next      string          `json:"next,omitempty"`
	Awaiting  bool            `json:"awaiting"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Completed reports whether the checkpoint records a finished workflow.
func (c *Checkpoint) Completed() bool {
	return c.Next == ""
}

// PruneRequest selects checkpoints for eviction by age of their last update.
// A zero time disables that half of the request.
type PruneRequest struct {
	CompletedBefore time.Time
	AbandonedBefore time.Time
}

// Store is the durable checkpoint backend.
type Store interface {
	// Load returns the checkpoint for id or ErrNotFound.
	Load(ctx context.Context, id string) (*Checkpoint, error)
	// Commit writes cp if the stored version still equals cp.Version
	// (zero meaning no checkpoint exists yet). On success cp.Version is
	// incremented and its timestamps refreshed. Otherwise ErrConflict.
	Commit(ctx context.Context, cp *Checkpoint) error
	// Delete removes the checkpoint for id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Prune deletes checkpoints selected by req and returns how many were removed.
	Prune(ctx context.Context, req PruneRequest) (int64, error)
	// Start registers lifecycle hooks for backends holding connections.
	Start(lc *lifecycle.Coordinator) error
}

func validate(cp *Checkpoint) error {
	if cp == nil || cp.SessionID == "" {
		return ErrInvalidID
	}
	if cp.Version < 0 {
		return ErrConflict
	}
	return nil
}
