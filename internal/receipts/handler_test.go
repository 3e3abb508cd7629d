package receipts_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/receipts"
	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/routes"
	"github.com/JaimeStill/tally/pkg/storage"
)

type mockSystem struct {
	listByPhoneFn  func(ctx context.Context, phone, service string) ([]receipts.Receipt, error)
	listFn         func(ctx context.Context, page pagination.Request, filters receipts.Filters) (*pagination.Result[receipts.Receipt], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error)
	expiringFn     func(ctx context.Context, date time.Time) ([]receipts.Receipt, error)
	imageFn        func(ctx context.Context, id uuid.UUID) (*storage.Blob, error)
	markNotifiedFn func(ctx context.Context, id string) error
}

func (m *mockSystem) Handler() *receipts.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.Request, filters receipts.Filters) (*pagination.Result[receipts.Receipt], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) ListByPhone(ctx context.Context, phone, service string) ([]receipts.Receipt, error) {
	return m.listByPhoneFn(ctx, phone, service)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) ExpiringOn(ctx context.Context, date time.Time) ([]receipts.Receipt, error) {
	return m.expiringFn(ctx, date)
}

func (m *mockSystem) Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	return m.imageFn(ctx, id)
}

func (m *mockSystem) Save(ctx context.Context, cmd receipts.CreateCommand) (*receipts.Receipt, error) {
	return nil, nil
}

func (m *mockSystem) MarkNotified(ctx context.Context, id string) error {
	return m.markNotifiedFn(ctx, id)
}

func newTestHandler(sys receipts.System) *receipts.Handler {
	return receipts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *receipts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func sampleReceipt() receipts.Receipt {
	return receipts.Receipt{
		ID:            uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		PhoneNumber:   "+51987654321",
		ServiceType:   "WATER",
		IsValid:       true,
		TotalAmount:   84.5,
		DueDate:       time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		BillingPeriod: "2026-10",
		ProviderName:  "Sedapal",
		ImageURL:      "http://127.0.0.1:10000/tallystore/receipts/receipts/water-1.jpg",
	}
}

func TestHandlerList(t *testing.T) {
	rec := sampleReceipt()

	var captured receipts.Filters
	var capturedPage pagination.Request
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.Request, f receipts.Filters) (*pagination.Result[receipts.Receipt], error) {
			captured = f
			capturedPage = page
			result := pagination.NewResult([]receipts.Receipt{rec}, 1, page)
			return &result, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/receipts?phone=%2B51987654321&service=WATER&notified=false&page_size=5", nil)
	setupMux(newTestHandler(sys)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured.Phone != "+51987654321" || captured.Service != "WATER" {
		t.Errorf("filters = %+v", captured)
	}
	if captured.Notified == nil || *captured.Notified {
		t.Errorf("notified filter = %v, want false", captured.Notified)
	}
	if capturedPage.PageSize != 5 {
		t.Errorf("page size = %d, want 5", capturedPage.PageSize)
	}

	var result pagination.Result[receipts.Receipt]
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != rec.ID {
		t.Errorf("data = %+v", result.Data)
	}
}

func TestHandlerExpiring(t *testing.T) {
	var captured time.Time
	sys := &mockSystem{
		expiringFn: func(_ context.Context, date time.Time) ([]receipts.Receipt, error) {
			captured = date
			return []receipts.Receipt{sampleReceipt()}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"valid date", "?date=2026-11-03", http.StatusOK},
		{"missing date", "", http.StatusBadRequest},
		{"bad format", "?date=03/11/2026", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/receipts/expiring"+tt.query, nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}

	if captured.Format(receipts.DateLayout) != "2026-11-03" {
		t.Errorf("date = %v", captured)
	}
}

func TestHandlerFind(t *testing.T) {
	rec := sampleReceipt()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*receipts.Receipt, error) {
			if id == rec.ID {
				return &rec, nil
			}
			return nil, receipts.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"found", rec.ID.String(), http.StatusOK},
		{"not found", uuid.NewString(), http.StatusNotFound},
		{"invalid id", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/receipts/"+tt.id, nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestHandlerImage(t *testing.T) {
	sys := &mockSystem{
		imageFn: func(_ context.Context, _ uuid.UUID) (*storage.Blob, error) {
			return &storage.Blob{
				Body:          io.NopCloser(strings.NewReader("jpeg-bytes")),
				ContentType:   "image/jpeg",
				ContentLength: 10,
			}, nil
		},
	}

	w := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(w, httptest.NewRequest("GET", "/receipts/"+uuid.NewString()+"/image", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content-type = %s", ct)
	}
	if w.Body.String() != "jpeg-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	sys.imageFn = func(_ context.Context, _ uuid.UUID) (*storage.Blob, error) {
		return nil, storage.ErrNotFound
	}
	w = httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(w, httptest.NewRequest("GET", "/receipts/"+uuid.NewString()+"/image", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing blob status = %d, want 404", w.Code)
	}
}

func TestHandlerMarkNotified(t *testing.T) {
	sys := &mockSystem{
		markNotifiedFn: func(_ context.Context, id string) error {
			if _, err := uuid.Parse(id); err != nil {
				return receipts.ErrInvalidID
			}
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/receipts/"+uuid.NewString()+"/notified", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/receipts/xyz/notified", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandlerHistory(t *testing.T) {
	rec := sampleReceipt()

	sys := &mockSystem{
		listByPhoneFn: func(_ context.Context, phone, service string) ([]receipts.Receipt, error) {
			if phone == "" {
				return nil, receipts.ErrInvalidReceipt
			}
			if phone != rec.PhoneNumber || service != "WATER" {
				t.Errorf("phone = %q, service = %q", phone, service)
			}
			return []receipts.Receipt{rec}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/receipts/history?phone=%2B51987654321&service=WATER", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var items []receipts.Receipt
	if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ProviderName != "Sedapal" {
		t.Errorf("items = %+v", items)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/receipts/history", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing phone: status = %d, want 400", w.Code)
	}
}
