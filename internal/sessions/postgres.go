package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JaimeStill/tally/pkg/lifecycle"
	"github.com/JaimeStill/tally/pkg/repository"
)

const pgColumns = `session_id, state, next, awaiting, version, created_at, updated_at`

type postgres struct {
	db *sql.DB
}

// NewPostgres creates a Store over the checkpoints table created by the
// service migrations. The connection lifecycle belongs to the database system.
func NewPostgres(db *sql.DB) Store {
	return &postgres{db: db}
}

func (p *postgres) Start(lc *lifecycle.Coordinator) error {
	return nil
}

func (p *postgres) Load(ctx context.Context, id string) (*Checkpoint, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	cp, err := repository.QueryOne(
		ctx, p.db,
		`SELECT `+pgColumns+` FROM checkpoints WHERE session_id = $1`,
		[]any{id},
		scanCheckpoint,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &cp, nil
}

func (p *postgres) Commit(ctx context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}

	var row *sql.Row
	if cp.Version == 0 {
		row = p.db.QueryRowContext(ctx, `
			INSERT INTO checkpoints (session_id, state, next, awaiting, version)
			VALUES ($1, $2, $3, $4, 1)
			ON CONFLICT (session_id) DO NOTHING
			RETURNING version, created_at, updated_at`,
			cp.SessionID, []byte(cp.State), cp.Next, cp.Awaiting,
		)
	} else {
		row = p.db.QueryRowContext(ctx, `
			UPDATE checkpoints
			SET state = $2, next = $3, awaiting = $4, version = version + 1, updated_at = now()
			WHERE session_id = $1 AND version = $5
			RETURNING version, created_at, updated_at`,
			cp.SessionID, []byte(cp.State), cp.Next, cp.Awaiting, cp.Version,
		)
	}

	if err := row.Scan(&cp.Version, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

func (p *postgres) Delete(ctx context.Context, id string) error {
	err := repository.ExecExpectOne(ctx, p.db, `DELETE FROM checkpoints WHERE session_id = $1`, id)
	return repository.MapError(err, ErrNotFound, ErrConflict)
}

func (p *postgres) Prune(ctx context.Context, req PruneRequest) (int64, error) {
	n, err := repository.ExecCount(ctx, p.db, `
		DELETE FROM checkpoints
		WHERE (next = '' AND $1::timestamptz IS NOT NULL AND updated_at < $1)
		   OR (next <> '' AND $2::timestamptz IS NOT NULL AND updated_at < $2)`,
		nullTime(req.CompletedBefore), nullTime(req.AbandonedBefore),
	)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return n, nil
}

func scanCheckpoint(s repository.Scanner) (Checkpoint, error) {
	var (
		cp    Checkpoint
		state []byte
	)
	err := s.Scan(&cp.SessionID, &state, &cp.Next, &cp.Awaiting, &cp.Version, &cp.CreatedAt, &cp.UpdatedAt)
	cp.State = state
	return cp, err
}
