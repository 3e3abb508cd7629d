// Package workflow implements the receipt intake workflow: a fixed graph of
// nodes (classify → decide → extract → upload → persist → confirm) with a
// bounded retry loop that suspends the session until the user sends a new
// image. The Engine checkpoints state after every step so any invocation can
// resume where the previous one stopped.
package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations.
var (
	ErrInvalidSession    = errors.New("session id must not be empty")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNoInput           = errors.New("no image supplied and session is not awaiting one")
	ErrAwaitingInput     = errors.New("session is awaiting a new image")
	ErrConflict          = errors.New("session was modified concurrently, retry the request")
	ErrExtractFailed     = errors.New("receipt extraction failed")
	ErrUploadFailed      = errors.New("receipt image upload failed")
	ErrPersistFailed     = errors.New("receipt persistence failed")
	ErrInvalidTransition = errors.New("transition not declared in workflow graph")
	ErrUnknownNode       = errors.New("unknown workflow node")
	ErrStepLimit         = errors.New("workflow exceeded step limit")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNoInput), errors.Is(err, ErrAwaitingInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrExtractFailed), errors.Is(err, ErrUploadFailed), errors.Is(err, ErrPersistFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
