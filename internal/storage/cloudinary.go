package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
)

// CloudinaryStore загружает фото на сервере через Upload API Cloudinary
type CloudinaryStore struct {
	cld          *cloudinary.Cloudinary
	folder       string
	uploadPreset string
	log          *zap.Logger
}

// NewCloudinaryStore создаёт клиент Cloudinary
func NewCloudinaryStore(cfg config.CloudinaryConfig, folder string, log *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании клиента Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	log.Info("Хранилище фото: Cloudinary", zap.String("cloud", cfg.CloudName), zap.String("folder", folder))
	return &CloudinaryStore{
		cld:          cld,
		folder:       folder,
		uploadPreset: cfg.UploadPreset,
		log:          log.Named("cloudinary"),
	}, nil
}

// publicID - путь без расширения внутри папки; Cloudinary сам дописывает формат
func (s *CloudinaryStore) publicID(objectPath string) string {
	id := strings.TrimSuffix(objectPath, path.Ext(objectPath))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

// Upload загружает объект и возвращает его https URL
func (s *CloudinaryStore) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     s.publicID(objectPath),
		Overwrite:    api.Bool(false),
		UploadPreset: s.uploadPreset,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки в Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("ошибка загрузки в Cloudinary: %s", res.Error.Message)
	}

	s.log.Debug("Фото загружено", zap.String("public_id", res.PublicID), zap.Int("bytes", res.Bytes))
	return res.SecureURL, nil
}

// Delete удаляет объект; отсутствующий объект ошибкой не считается
func (s *CloudinaryStore) Delete(ctx context.Context, objectPath string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: s.publicID(objectPath)})
	if err != nil {
		return fmt.Errorf("ошибка удаления из Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("ошибка удаления из Cloudinary: %s", res.Error.Message)
	}
	return nil
}
