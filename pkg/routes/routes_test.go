package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/tally/pkg/routes"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) }
}

func TestRegisterNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	group := routes.Group{
		Prefix: "/receipts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: status(http.StatusOK)},
			{Method: "POST", Pattern: "/process", Handler: status(http.StatusAccepted)},
		},
		Children: []routes.Group{
			{
				Prefix: "/sessions",
				Routes: []routes.Route{
					{Method: "DELETE", Pattern: "/{id}", Handler: status(http.StatusNoContent)},
				},
			},
		},
	}
	routes.Register(mux, group)

	want := []string{"GET /receipts", "POST /receipts/process", "DELETE /receipts/sessions/{id}"}
	if got := routes.Patterns(group); !slices.Equal(got, want) {
		t.Errorf("patterns: got %v, want %v", got, want)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/receipts", http.StatusOK},
		{"POST", "/receipts/process", http.StatusAccepted},
		{"DELETE", "/receipts/sessions/51999", http.StatusNoContent},
		{"GET", "/receipts/process", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
