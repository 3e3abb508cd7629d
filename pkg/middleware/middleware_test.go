package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/tally/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           3600,
	}

	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "http://example.com", "", http.StatusOK},
		{"allowed", cfg, "GET", "http://example.com", "http://example.com", http.StatusOK},
		{"denied", cfg, "GET", "http://denied.com", "", http.StatusOK},
		{"preflight", cfg, "OPTIONS", "http://example.com", "http://example.com", http.StatusNoContent},
		{"wildcard", &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}, "GET", "http://any.test", "http://any.test", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.CORS(tt.cfg)(http.HandlerFunc(ok))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.cfg.AllowCredentials && tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("credentials header missing")
			}
		})
	}
}

func TestCORSConfigEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, http://b.com")

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(&middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED", Origins: "TEST_CORS_ORIGINS"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled || len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b.com" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age default: got %d", cfg.MaxAge)
	}
}

func TestCORSConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     middleware.CORSConfig
		wantErr bool
	}{
		{"explicit origins", middleware.CORSConfig{Origins: []string{"https://app.test", "http://localhost:5173"}}, false},
		{"wildcard", middleware.CORSConfig{Origins: []string{"*"}}, false},
		{"wildcard with credentials", middleware.CORSConfig{Origins: []string{"*"}, AllowCredentials: true}, true},
		{"bare host", middleware.CORSConfig{Origins: []string{"app.test"}}, true},
		{"origin with path", middleware.CORSConfig{Origins: []string{"https://app.test/admin"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("err: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if seen == "" || rec.Header().Get(middleware.HeaderRequestID) != seen {
		t.Errorf("generated id: context %q, header %q", seen, rec.Header().Get(middleware.HeaderRequestID))
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.HeaderRequestID, "webhook-42")
	handler.ServeHTTP(rec, req)
	if seen != "webhook-42" || rec.Header().Get(middleware.HeaderRequestID) != "webhook-42" {
		t.Errorf("inbound id not reused: %q", seen)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/brew?x=1", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "uri=\"/brew?x=1\"") {
		t.Errorf("log line missing fields: %s", out)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body: got %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "handler panic") {
		t.Error("panic not logged")
	}
}
