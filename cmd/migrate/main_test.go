package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveDSN(t *testing.T) {
	dir := t.TempDir()
	toml := "[database]\nhost = \"db.internal\"\nname = \"ledger\"\nuser = \"svc\"\npassword = \"pw\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveDSN(options{dsn: "postgres://flag", dir: dir})
	if err != nil || got != "postgres://flag" {
		t.Errorf("flag: got %q, %v", got, err)
	}

	t.Setenv(envDSN, "postgres://env")
	got, err = resolveDSN(options{dir: dir})
	if err != nil || got != "postgres://env" {
		t.Errorf("env: got %q, %v", got, err)
	}

	t.Setenv(envDSN, "")
	t.Setenv("TALLY_DB_PORT", "6543")
	got, err = resolveDSN(options{dir: dir})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	want := "postgres://svc:pw@db.internal:6543/ledger?sslmode=disable"
	if got != want {
		t.Errorf("config: got %q, want %q", got, want)
	}
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatal(err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("migrations: %d up, %d down", ups, downs)
	}
}
