package receipts

import (
	"errors"
	"net/http"
)

// Domain errors for receipt operations.
var (
	ErrNotFound       = errors.New("receipt not found")
	ErrDuplicate      = errors.New("receipt already exists")
	ErrInvalidReceipt = errors.New("invalid receipt")
	ErrInvalidID      = errors.New("invalid receipt id")
	ErrInvalidDate    = errors.New("date must be formatted YYYY-MM-DD")
)

// MapHTTPStatus maps receipt domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidReceipt), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
