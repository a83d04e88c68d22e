package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/geosight/backend/pkg/logger"
)

// LocalStore writes photos to an uploads directory served as static files.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating upload directory %s: %w", dir, err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Dir is the directory static file serving must be mounted on.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(_ context.Context, filename string, reader io.Reader, _ int64, _ string) (string, error) {
	filename = filepath.Base(filename)
	path := filepath.Join(s.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		logger.Error("photo_save_failed", err, map[string]interface{}{"path": path})
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		logger.Error("photo_save_failed", err, map[string]interface{}{"path": path})
		_ = os.Remove(path)
		return "", err
	}

	logger.Info("photo_saved", map[string]interface{}{
		"path":    path,
		"backend": "local",
	})
	return s.baseURL + URLPrefix + "/" + filename, nil
}

func (s *LocalStore) Remove(_ context.Context, filename string) error {
	return os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
}
