package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/pkg/lifecycle"
)

func TestHealthEndpoints(t *testing.T) {
	infra := &infrastructure.Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	router := buildRouter(infra, "1.2.3")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["version"] != "1.2.3" {
		t.Errorf("healthz body = %v", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup = %d", rec.Code)
	}
	var notReady struct {
		Pending []string `json:"pending"`
	}
	json.NewDecoder(rec.Body).Decode(&notReady)
	if len(notReady.Pending) != 1 || notReady.Pending[0] != "startup" {
		t.Errorf("readyz pending = %v", notReady.Pending)
	}

	infra.Lifecycle.WaitForStartup()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz after startup = %d", rec.Code)
	}
}
