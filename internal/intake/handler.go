package intake

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/tally/internal/workflow"
	"github.com/JaimeStill/tally/pkg/handlers"
	"github.com/JaimeStill/tally/pkg/routes"
)

// Engine is the workflow surface the intake handler drives.
type Engine interface {
	Run(ctx context.Context, sessionID string, in workflow.Input) (*workflow.Result, error)
	Status(ctx context.Context, sessionID string) (*workflow.Result, error)
	Reset(ctx context.Context, sessionID string) error
}

// ProcessResponse summarizes a workflow run for the caller.
type ProcessResponse struct {
	SessionID      string                  `json:"session_id"`
	Classification workflow.Classification `json:"classification"`
	IsValid        bool                    `json:"is_valid"`
	AttemptCount   int                     `json:"attempt_count"`
	AwaitingInput  bool                    `json:"awaiting_input"`
	UserMessage    string                  `json:"user_message"`
	ReceiptID      string                  `json:"receipt_id,omitempty"`
	Suspended      bool                    `json:"suspended"`
	Next           workflow.NodeName       `json:"next,omitempty"`
}

// SessionView is the stored checkpoint of a session without image bytes.
type SessionView struct {
	SessionID      string                    `json:"session_id"`
	Classification workflow.Classification   `json:"classification"`
	IsValid        bool                      `json:"is_valid"`
	AttemptCount   int                       `json:"attempt_count"`
	AttemptLimit   int                       `json:"attempt_limit"`
	AwaitingInput  bool                      `json:"awaiting_input"`
	HasImage       bool                      `json:"has_image"`
	Extracted      *workflow.ExtractedFields `json:"extracted,omitempty"`
	UserMessage    string                    `json:"user_message,omitempty"`
	UploadedRef    string                    `json:"uploaded_ref,omitempty"`
	ReceiptID      string                    `json:"receipt_id,omitempty"`
	Next           workflow.NodeName         `json:"next,omitempty"`
	Suspended      bool                      `json:"suspended"`
	Completed      bool                      `json:"completed"`
	Version        int64                     `json:"version"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Handler provides HTTP endpoints for receipt intake and session state.
type Handler struct {
	engine        Engine
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler over engine. Images larger than maxUploadSize
// bytes are rejected.
func NewHandler(engine Engine, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		engine:        engine,
		logger:        logger.With("handler", "intake"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the intake and session route groups.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/receipts",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/process", Handler: h.Process},
			},
		},
		{
			Prefix: "/sessions",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: h.Status},
				{Method: "DELETE", Pattern: "/{id}", Handler: h.Reset},
				{Method: "POST", Pattern: "/{id}/resume", Handler: h.Resume},
			},
		},
	}
}

// Process runs the workflow for the sender with the submitted image.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	sub, err := readSubmission(w, r, h.maxUploadSize)
	if err != nil {
		status := MapHTTPStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	result, err := h.engine.Run(r.Context(), sub.phone, workflow.Input{Image: &sub.image})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, processResponse(result))
}

// Status returns the stored checkpoint for a session.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := NormalizePhone(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.engine.Status(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sessionView(result))
}

// Resume re-enters an interrupted session at the node that failed,
// without a new image.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	id, err := NormalizePhone(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.engine.Run(r.Context(), id, workflow.Input{})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, processResponse(result))
}

// Reset deletes a session so the next image starts a fresh workflow.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, err := NormalizePhone(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.engine.Reset(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func processResponse(r *workflow.Result) ProcessResponse {
	return ProcessResponse{
		SessionID:      r.SessionID,
		Classification: r.State.Classification,
		IsValid:        r.State.IsValid,
		AttemptCount:   r.State.AttemptCount,
		AwaitingInput:  r.State.AwaitingInput,
		UserMessage:    r.State.UserMessage,
		ReceiptID:      r.State.ReceiptID,
		Suspended:      r.Suspended,
		Next:           r.Next,
	}
}

func sessionView(r *workflow.Result) SessionView {
	s := r.State
	return SessionView{
		SessionID:      r.SessionID,
		Classification: s.Classification,
		IsValid:        s.IsValid,
		AttemptCount:   s.AttemptCount,
		AttemptLimit:   s.AttemptLimit,
		AwaitingInput:  s.AwaitingInput,
		HasImage:       s.Image != nil,
		Extracted:      s.Extracted,
		UserMessage:    s.UserMessage,
		UploadedRef:    s.UploadedRef,
		ReceiptID:      s.ReceiptID,
		Next:           r.Next,
		Suspended:      r.Suspended,
		Completed:      r.Completed,
		Version:        r.Version,
		UpdatedAt:      r.UpdatedAt,
	}
}
