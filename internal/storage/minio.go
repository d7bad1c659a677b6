package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
)

// MinioStore - S3-совместимое хранилище фото
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewMinioStore создаёт клиент и при необходимости бакет
func NewMinioStore(ctx context.Context, cfg config.MinioConfig, bucket string, log *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании клиента MinIO %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке бакета %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("ошибка при создании бакета %s: %w", bucket, err)
		}
		log.Info("Бакет создан", zap.String("bucket", bucket))
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + bucket
	}

	log.Info("Хранилище фото: MinIO", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", bucket))
	return &MinioStore{client: client, bucket: bucket, baseURL: baseURL, log: log.Named("minio")}, nil
}

// Upload кладёт объект в бакет; size -1 означает неизвестный размер
func (s *MinioStore) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки %s в бакет %s: %w", objectPath, s.bucket, err)
	}

	s.log.Debug("Фото загружено", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return s.baseURL + "/" + objectPath, nil
}

// Delete удаляет объект из бакета
func (s *MinioStore) Delete(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("ошибка удаления %s из бакета %s: %w", objectPath, s.bucket, err)
	}
	return nil
}
