package sessions

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_SESSIONS_BACKEND", "sqlite")
	t.Setenv("TEST_SESSIONS_COMPLETED_TTL", "2h")

	cfg := Config{}
	err := cfg.Finalize(&Env{Backend: "TEST_SESSIONS_BACKEND", CompletedTTL: "TEST_SESSIONS_COMPLETED_TTL"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Backend != BackendSQLite {
		t.Errorf("backend: got %s", cfg.Backend)
	}
	if cfg.CompletedTTLDuration() != 2*time.Hour {
		t.Errorf("completed ttl: got %v", cfg.CompletedTTLDuration())
	}
	if cfg.AbandonedTTLDuration() != 168*time.Hour {
		t.Errorf("abandoned ttl default: got %v", cfg.AbandonedTTLDuration())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown backend", Config{Backend: "etcd"}, "unknown session backend"},
		{"bad ttl", Config{CompletedTTL: "soon"}, "invalid completed_ttl"},
		{"negative interval", Config{PruneInterval: "-1h"}, "invalid prune_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	store, err := Open(&Config{Backend: BackendMemory}, nil, discard())
	if err != nil || store == nil {
		t.Fatalf("memory: %v", err)
	}

	if _, err := Open(&Config{Backend: BackendPostgres}, nil, discard()); err == nil {
		t.Error("postgres without db should fail")
	}

	if _, err := Open(&Config{Backend: "etcd"}, nil, discard()); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown: got %v", err)
	}
}
