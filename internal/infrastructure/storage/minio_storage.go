package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"aulanet/pkg/config"
)

// MinioStorage stores objects in any S3-compatible backend. The public
// URL it hands back is the plain path-style object URL; buckets holding
// user-visible files are expected to allow anonymous reads.
type MinioStorage struct {
	client   *minio.Client
	endpoint string
	useSSL   bool
	logger   *zap.SugaredLogger
}

func NewMinioStorage(cfg config.StorageConfig, logger *zap.SugaredLogger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &MinioStorage{
		client:   client,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
		logger:   logger,
	}, nil
}

func (s *MinioStorage) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	s.logger.Debugw("object stored", "bucket", bucket, "key", key, "bytes", len(data))
	return s.objectURL(bucket, key), nil
}

func (s *MinioStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinioStorage) objectURL(bucket, key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, key)
}
