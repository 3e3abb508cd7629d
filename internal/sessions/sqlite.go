package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JaimeStill/tally/pkg/lifecycle"
	"github.com/JaimeStill/tally/pkg/repository"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id TEXT PRIMARY KEY,
	state      BLOB NOT NULL,
	next       TEXT NOT NULL DEFAULT '',
	awaiting   INTEGER NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_updated ON checkpoints(updated_at);`

type sqlite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) a checkpoint database at path.
func NewSQLite(path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &sqlite{db: db, now: time.Now}, nil
}

func (s *sqlite) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.db.Close()
	})
	return nil
}

func (s *sqlite) Load(ctx context.Context, id string) (*Checkpoint, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	cp, err := repository.QueryOne(
		ctx, s.db,
		`SELECT session_id, state, next, awaiting, version, created_at, updated_at
		 FROM checkpoints WHERE session_id = ?`,
		[]any{id},
		scanSQLiteCheckpoint,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &cp, nil
}

func (s *sqlite) Commit(ctx context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}

	now := s.now().UTC()
	var (
		n   int64
		err error
	)
	if cp.Version == 0 {
		n, err = repository.ExecCount(ctx, s.db, `
			INSERT INTO checkpoints (session_id, state, next, awaiting, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(session_id) DO NOTHING`,
			cp.SessionID, []byte(cp.State), cp.Next, cp.Awaiting, now.UnixNano(), now.UnixNano(),
		)
	} else {
		n, err = repository.ExecCount(ctx, s.db, `
			UPDATE checkpoints
			SET state = ?, next = ?, awaiting = ?, version = version + 1, updated_at = ?
			WHERE session_id = ? AND version = ?`,
			[]byte(cp.State), cp.Next, cp.Awaiting, now.UnixNano(), cp.SessionID, cp.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}

	if cp.Version == 0 {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	cp.Version++
	return nil
}

func (s *sqlite) Delete(ctx context.Context, id string) error {
	err := repository.ExecExpectOne(ctx, s.db, `DELETE FROM checkpoints WHERE session_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *sqlite) Prune(ctx context.Context, req PruneRequest) (int64, error) {
	n, err := repository.ExecCount(ctx, s.db, `
		DELETE FROM checkpoints
		WHERE (next = '' AND ? > 0 AND updated_at < ?)
		   OR (next <> '' AND ? > 0 AND updated_at < ?)`,
		unixOrZero(req.CompletedBefore), unixOrZero(req.CompletedBefore),
		unixOrZero(req.AbandonedBefore), unixOrZero(req.AbandonedBefore),
	)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return n, nil
}

func scanSQLiteCheckpoint(s repository.Scanner) (Checkpoint, error) {
	var (
		cp               Checkpoint
		state            []byte
		created, updated int64
	)
	if err := s.Scan(&cp.SessionID, &state, &cp.Next, &cp.Awaiting, &cp.Version, &created, &updated); err != nil {
		return cp, err
	}
	cp.State = state
	cp.CreatedAt = time.Unix(0, created).UTC()
	cp.UpdatedAt = time.Unix(0, updated).UTC()
	return cp, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
