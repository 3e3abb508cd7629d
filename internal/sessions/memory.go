package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/tally/pkg/lifecycle"
)

type memory struct {
	mu    sync.Mutex
	items map[string]Checkpoint
	now   func() time.Time
}

// NewMemory creates an in-process Store. Checkpoints do not survive a restart.
func NewMemory() Store {
	return &memory{
		items: make(map[string]Checkpoint),
		now:   time.Now,
	}
}

func (m *memory) Start(lc *lifecycle.Coordinator) error {
	return nil
}

func (m *memory) Load(ctx context.Context, id string) (*Checkpoint, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp.State = slices.Clone(cp.State)
	return &cp, nil
}

func (m *memory) Commit(ctx context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.items[cp.SessionID]
	switch {
	case cp.Version == 0 && exists:
		return ErrConflict
	case cp.Version > 0 && (!exists || current.Version != cp.Version):
		return ErrConflict
	}

	now := m.now().UTC()
	if exists {
		cp.CreatedAt = current.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	cp.Version++

	stored := *cp
	stored.State = slices.Clone(cp.State)
	m.items[cp.SessionID] = stored
	return nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memory) Prune(ctx context.Context, req PruneRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, cp := range m.items {
		if expired(&cp, req) {
			delete(m.items, id)
			removed++
		}
	}
	return removed, nil
}

func expired(cp *Checkpoint, req PruneRequest) bool {
	if cp.Completed() {
		return !req.CompletedBefore.IsZero() && cp.UpdatedAt.Before(req.CompletedBefore)
	}
	return !req.AbandonedBefore.IsZero() && cp.UpdatedAt.Before(req.AbandonedBefore)
}
