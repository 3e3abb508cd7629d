package sessions

import "errors"

var (
	// ErrNotFound indicates no checkpoint exists for the session.
	ErrNotFound = errors.New("session checkpoint not found")
	// ErrConflict indicates the checkpoint changed since it was loaded.
	ErrConflict = errors.New("session checkpoint version conflict")
	// ErrInvalidID indicates an empty session id.
	ErrInvalidID = errors.New("session id must not be empty")
	// ErrUnknownBackend indicates an unsupported sessions.backend value.
	ErrUnknownBackend = errors.New("unknown session backend")
)
