package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/geosight/backend/internal/config"
	"github.com/geosight/backend/pkg/logger"
)

// MinIOStore keeps photos in an object-storage bucket with public read URLs.
type MinIOStore struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	useSSL         bool
}

func NewMinIOStore(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOStore{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: cfg.PublicEndpoint,
		useSSL:         cfg.UseSSL,
	}, nil
}

func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIOStore) Save(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := s.objectName(filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("photo_save_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
			"backend":     "minio",
		})
		return "", err
	}

	logger.Info("photo_saved", map[string]interface{}{
		"object_name": objectName,
		"bucket":      s.bucket,
		"backend":     "minio",
	})

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.publicEndpoint, s.bucket, objectName), nil
}

func (s *MinIOStore) Remove(ctx context.Context, filename string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectName(filename), minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("photo_remove_failed", err, map[string]interface{}{
			"object_name": s.objectName(filename),
			"bucket":      s.bucket,
		})
	}
	return err
}

func (s *MinIOStore) objectName(filename string) string {
	return "sightings/" + filename
}
