// Package storage persists sighting photos and resolves their public URLs.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PhotoFieldName is the multipart form field carrying the photo.
	PhotoFieldName = "photo"

	// MaxPhotoSizeBytes caps a single photo upload at 5 MB.
	MaxPhotoSizeBytes = 5 * 1024 * 1024

	// URLPrefix is the fixed prefix photos are served under.
	URLPrefix = "/uploads/sightings"
)

// AcceptedPhotoTypes restricts uploads to a few image formats.
var AcceptedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Store is the save-and-get-URL interface the API layer writes photos through.
type Store interface {
	// Save persists the stream under filename and returns its public URL.
	Save(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, filename string) error
}

// PhotoFilename builds a unique, date-stamped name keeping the original
// extension, e.g. "20260829-sighting-9f3ab2c1.jpg".
func PhotoFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	unique := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return time.Now().UTC().Format("20060102") + "-sighting-" + unique + ext
}
