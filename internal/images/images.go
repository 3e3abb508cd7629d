// Package images stores receipt images in blob storage.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/tally/internal/workflow"
	"github.com/JaimeStill/tally/pkg/storage"
)

// ErrUnsupportedType indicates an upload that is not an image.
var ErrUnsupportedType = errors.New("unsupported image type")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// Store uploads receipt images and discards them again by URL.
type Store struct {
	storage storage.System
	logger  *slog.Logger
}

// New creates a Store over store.
func New(store storage.System, logger *slog.Logger) *Store {
	return &Store{
		storage: store,
		logger:  logger.With("system", "images"),
	}
}

// Upload stores img at folder/name with an extension derived from its
// content type and returns the blob URL.
func (s *Store) Upload(ctx context.Context, img workflow.Image, folder, name string, tags map[string]string) (string, error) {
	ct := ContentType(img)
	ext, ok := extensions[ct]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}

	key := path.Join(folder, sanitize(name)+ext)

	url, err := s.storage.Upload(ctx, key, bytes.NewReader(img.Data), storage.UploadOptions{
		ContentType: ct,
		Tags:        tags,
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "image uploaded", "key", key, "size", len(img.Data))
	return url, nil
}

// Discard deletes the blob behind url. A blob that is already gone is not an error.
func (s *Store) Discard(ctx context.Context, url string) error {
	key, err := s.storage.KeyFromURL(url)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	s.logger.InfoContext(ctx, "image discarded", "key", key)
	return nil
}

// ContentType returns the media type of img, sniffing the data when the
// declared type is missing or generic.
func ContentType(img workflow.Image) string {
	declared := strings.TrimSpace(img.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(img.Data))
	return mt
}

// Supported reports whether ct is an accepted image type.
func Supported(ct string) bool {
	_, ok := extensions[ct]
	return ok
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
