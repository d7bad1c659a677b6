// Package storage хранит байты фотографий объявлений во внешнем объектном хранилище.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
)

// ObjectStore загружает и удаляет объекты по пути внутри бакета
type ObjectStore interface {
	// Upload сохраняет объект и возвращает его публичный URL
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// New создаёт хранилище по STORAGE_DRIVER
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (ObjectStore, error) {
	switch cfg.StorageConfig.Driver {
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryConfig, cfg.StorageConfig.Bucket, log)
	case "minio":
		return NewMinioStore(ctx, cfg.MinioConfig, cfg.StorageConfig.Bucket, log)
	}
	return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.StorageConfig.Driver)
}

// ObjectPath строит путь фото: <owner>/<listing>/<uuid>-<filename>
func ObjectPath(ownerID, listingID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s-%s", ownerID, listingID, uuid.New(), cleanFilename(filename))
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "photo"
	}
	return name
}
