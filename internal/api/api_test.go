package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/tally/internal/api"
	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/infrastructure"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=tallystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/tallystore;"

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TALLY_STORAGE_CONNECTION_STRING", azuriteConnString)
	t.Setenv("TALLY_SESSIONS_BACKEND", "memory")
	t.Setenv("TALLY_LOG_LEVEL", "error")

	cfg, err := config.LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("config.LoadFrom() error = %v", err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	if runtime.Pagination.DefaultPageSize != 20 || runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination: got %+v", runtime.Pagination)
	}
	if runtime.MaxUploadSize != 10*1024*1024 {
		t.Errorf("max upload size: got %d", runtime.MaxUploadSize)
	}
	if runtime.Workflow.AttemptLimit != 3 {
		t.Errorf("attempt limit: got %d", runtime.Workflow.AttemptLimit)
	}
	if runtime.Logger == nil || runtime.Database == nil || runtime.Storage == nil || runtime.Sessions == nil || runtime.Lifecycle == nil {
		t.Error("runtime is missing infrastructure")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	domain, err := api.NewDomain(api.NewRuntime(cfg, setupInfra(t, cfg)))
	if err != nil {
		t.Fatalf("NewDomain() error = %v", err)
	}

	if domain.Engine == nil || domain.Receipts == nil || domain.Vision == nil || domain.Images == nil {
		t.Errorf("domain is missing systems: %+v", domain)
	}
}

func TestNewModuleRoutes(t *testing.T) {
	cfg := validConfig(t)

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/api/sessions/51999888777", "", http.StatusNotFound},
		{"DELETE", "/api/sessions/51999888777", "", http.StatusNotFound},
		{"GET", "/api/sessions/not-a-phone", "", http.StatusBadRequest},
		{"POST", "/api/receipts/process", `{"phone_number":"51999888777"}`, http.StatusBadRequest},
		{"GET", "/api/receipts/not-a-uuid", "", http.StatusBadRequest},
		{"GET", "/api/receipts/expiring?date=tomorrow", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			m.Serve(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}
