// Package intake exposes the receipt workflow over HTTP: it accepts receipt
// images from a sender, runs the workflow for the sender's session, and
// reports or resets session state.
package intake

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/tally/internal/workflow"
)

var (
	ErrInvalidPhone     = errors.New("phone_number must be 6 to 15 digits with an optional leading +")
	ErrMissingImage     = errors.New("request carries no image")
	ErrInvalidEncoding  = errors.New("image_base64 is not valid base64")
	ErrUnsupportedImage = errors.New("image type is not supported")
	ErrTooLarge         = errors.New("request body exceeds the upload limit")
)

// MapHTTPStatus maps intake and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrMissingImage), errors.Is(err, ErrInvalidEncoding):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return workflow.MapHTTPStatus(err)
	}
}
