package database_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/tally/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"name", cfg.Name, "tally"},
		{"user", cfg.User, "tally"},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
		{"conn_retry_window", cfg.ConnRetryWindow, "30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "remotehost")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_MAX_OPEN", "50")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Host != "remotehost" || cfg.Port != 5433 || cfg.Name != "envdb" || cfg.MaxOpenConns != 50 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"invalid port", database.Config{Port: 70000}, "invalid port"},
		{"invalid conn_max_lifetime", database.Config{ConnMaxLifetime: "bad"}, "invalid conn_max_lifetime"},
		{"invalid conn_timeout", database.Config{ConnTimeout: "bad"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMergeOverlay(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "tally"}
	base.Merge(&database.Config{Host: "db.internal", Password: "secret"})

	if base.Host != "db.internal" || base.Password != "secret" || base.Name != "tally" {
		t.Errorf("merge: got %+v", base)
	}
}

func TestURL(t *testing.T) {
	cfg := database.Config{Host: "db", Port: 5432, Name: "tally", User: "app", Password: "p@ss", SSLMode: "disable"}

	got := cfg.URL()
	want := "postgres://app:p%40ss@db:5432/tally?sslmode=disable"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
