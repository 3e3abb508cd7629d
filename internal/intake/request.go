package intake

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/JaimeStill/tally/internal/images"
	"github.com/JaimeStill/tally/internal/workflow"
	"github.com/JaimeStill/tally/pkg/formatting"
)

// ProcessRequest is the JSON form of an intake submission.
type ProcessRequest struct {
	PhoneNumber string `json:"phone_number"`
	ImageBase64 string `json:"image_base64"`
}

type submission struct {
	phone string
	image workflow.Image
}

// readSubmission decodes a JSON or multipart body into a phone number and image.
func readSubmission(w http.ResponseWriter, r *http.Request, limit int64) (submission, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		sub submission
		err error
	)
	if mt == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
		sub, err = readMultipart(r, limit)
	} else {
		// base64 inflates the payload by a third
		r.Body = http.MaxBytesReader(w, r.Body, limit/3*4+(1<<12))
		sub, err = readJSON(r)
	}
	if err != nil {
		return submission{}, err
	}

	phone, err := NormalizePhone(sub.phone)
	if err != nil {
		return submission{}, err
	}
	sub.phone = phone

	if len(sub.image.Data) == 0 {
		return submission{}, ErrMissingImage
	}
	if n := int64(len(sub.image.Data)); n > limit {
		return submission{}, fmt.Errorf("%w: image is %s, limit %s",
			ErrTooLarge, formatting.FormatBytes(n, 1), formatting.FormatBytes(limit, 0))
	}

	sub.image.ContentType = images.ContentType(sub.image)
	if !images.Supported(sub.image.ContentType) {
		return submission{}, ErrUnsupportedImage
	}

	return sub, nil
}

func readJSON(r *http.Request) (submission, error) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if tooLarge(err) {
			return submission{}, ErrTooLarge
		}
		return submission{}, err
	}

	img, err := decodeImage(req.ImageBase64)
	if err != nil {
		return submission{}, err
	}

	return submission{phone: req.PhoneNumber, image: img}, nil
}

func readMultipart(r *http.Request, limit int64) (submission, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		if tooLarge(err) {
			return submission{}, ErrTooLarge
		}
		return submission{}, err
	}

	sub := submission{phone: r.FormValue("phone_number")}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return sub, nil
		}
		return submission{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return submission{}, err
	}

	sub.image = workflow.Image{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}
	return sub, nil
}

// decodeImage accepts raw base64 or a data URI.
func decodeImage(encoded string) (workflow.Image, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return workflow.Image{}, nil
	}

	var img workflow.Image
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return workflow.Image{}, ErrInvalidEncoding
		}
		img.ContentType = strings.TrimSuffix(meta, ";base64")
		encoded = payload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return workflow.Image{}, ErrInvalidEncoding
	}
	img.Data = data
	return img, nil
}

// NormalizePhone strips formatting from a phone number and validates the
// remaining digits. The result is used as the session id.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}

	phone := b.String()
	digits := len(strings.TrimPrefix(phone, "+"))
	if digits < 6 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
