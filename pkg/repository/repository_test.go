package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	_ "modernc.org/sqlite"

	"github.com/JaimeStill/tally/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("some other error")
	fk := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key passes through", fk, fk},
		{"other passes through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.MapError(tt.in, errNotFound, errDuplicate); !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

type item struct {
	ID   int
	Name string
}

func scanItem(s repository.Scanner) (item, error) {
	var i item
	err := s.Scan(&i.ID, &i.Name)
	return i, err
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestQueryHelpers(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (struct{}, error) {
		for i, name := range []string{"water", "gas"} {
			if err := repository.ExecExpectOne(ctx, tx, `INSERT INTO items (id, name) VALUES (?, ?)`, i+1, name); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	one, err := repository.QueryOne(ctx, db, `SELECT id, name FROM items WHERE id = ?`, []any{2}, scanItem)
	if err != nil || one.Name != "gas" {
		t.Fatalf("QueryOne: got %+v, %v", one, err)
	}

	many, err := repository.QueryMany(ctx, db, `SELECT id, name FROM items ORDER BY id`, nil, scanItem)
	if err != nil || len(many) != 2 {
		t.Fatalf("QueryMany: got %+v, %v", many, err)
	}

	empty, err := repository.QueryMany(ctx, db, `SELECT id, name FROM items WHERE id > 10`, nil, scanItem)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("QueryMany empty: got %#v, %v", empty, err)
	}

	if err := repository.ExecExpectOne(ctx, db, `UPDATE items SET name = 'x' WHERE id = 99`); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ExecExpectOne: got %v, want sql.ErrNoRows", err)
	}

	total, err := repository.Count(ctx, db, `SELECT COUNT(*) FROM items WHERE name <> ?`, []any{"x"})
	if err != nil || total != 2 {
		t.Errorf("Count: got %d, %v", total, err)
	}

	removed, err := repository.ExecCount(ctx, db, `DELETE FROM items`)
	if err != nil || removed != 2 {
		t.Errorf("ExecCount: got %d, %v", removed, err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	boom := errors.New("boom")
	_, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (int, error) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (id, name) VALUES (1, 'water')`); err != nil {
			return 0, err
		}
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil || count != 0 {
		t.Errorf("rollback: count %d, err %v", count, err)
	}
}

func TestMapErrorSQLiteConstraint(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	insert := `INSERT INTO items (id, name) VALUES (1, 'water')`
	if err := repository.ExecExpectOne(ctx, db, insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := repository.ExecExpectOne(ctx, db, insert)
	if got := repository.MapError(err, errNotFound, errDuplicate); got != errDuplicate {
		t.Errorf("duplicate primary key: got %v, want errDuplicate", got)
	}
}
