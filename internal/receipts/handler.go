package receipts

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/handlers"
	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/routes"
	"github.com/JaimeStill/tally/pkg/storage"
)

// Handler provides HTTP endpoints for stored receipts.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler over sys.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "receipts"),
		pagination: pagination,
	}
}

// Routes returns the route group for receipt endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/receipts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/expiring", Handler: h.Expiring},
			{Method: "GET", Pattern: "/history", Handler: h.History},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/image", Handler: h.Image},
			{Method: "POST", Pattern: "/{id}/notified", Handler: h.MarkNotified},
		},
	}
}

// List returns a page of receipts filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Expiring returns the valid receipts due on the date query parameter.
func (h *Handler) Expiring(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDate)
		return
	}

	items, err := h.sys.ExpiringOn(r.Context(), date)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// History returns every receipt a phone number has submitted, optionally
// narrowed to one service.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, err := h.sys.ListByPhone(r.Context(), q.Get("phone"), q.Get("service"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Find returns a single receipt by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Image streams the stored receipt image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	blob, err := h.sys.Image(r.Context(), id)
	if err != nil {
		status := MapHTTPStatus(err)
		if status == http.StatusInternalServerError {
			status = storage.MapHTTPStatus(err)
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, blob.Body)
}

// MarkNotified flags a receipt as delivered to its owner.
func (h *Handler) MarkNotified(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.MarkNotified(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
