package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
	"github.com/rajivgeraev/puzzleswap-api/internal/storage"
)

// CreateInput - поля нового объявления; пустые строки сохраняются как NULL
type CreateInput struct {
	Title         string
	Brand         string
	Pieces        *int
	Theme         string
	Condition     string
	MissingPieces string
	Notes         string
}

// Upload - файл фотографии из запроса
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Detail - объявление с фотографиями и возможностью предложить обмен
type Detail struct {
	Listing    *models.Listing  `json:"listing"`
	Photos     []models.Photo   `json:"photos"`
	IsOwner    bool             `json:"is_owner"`
	Offerable  []models.Listing `json:"offerable"`
	CanPropose bool             `json:"can_propose"`
}

// ListingService представляет сервис для работы с объявлениями
type ListingService struct {
	store   db.Store
	objects storage.ObjectStore
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewListingService создает новый экземпляр ListingService
func NewListingService(store db.Store, objects storage.ObjectStore, m *metrics.Metrics, log *zap.Logger) *ListingService {
	return &ListingService{store: store, objects: objects, metrics: m, log: log.Named("listing")}
}

// Create сохраняет объявление и до MaxPhotosPerListing фотографий в одной транзакции.
// Неудачные загрузки пропускаются; обложка - первая успешно загруженная фотография.
func (s *ListingService) Create(ctx context.Context, caller *models.Identity, in CreateInput, files []Upload) (*Detail, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.Pieces != nil && *in.Pieces < 1 {
		return nil, ErrInvalidPieces
	}
	if len(files) > models.MaxPhotosPerListing {
		files = files[:models.MaxPhotosPerListing]
	}

	listing := &models.Listing{
		ID:            uuid.New(),
		OwnerID:       caller.UserID,
		Title:         title,
		Brand:         optional(in.Brand),
		Pieces:        in.Pieces,
		Theme:         optional(in.Theme),
		Condition:     optional(in.Condition),
		MissingPieces: optional(in.MissingPieces),
		Notes:         optional(in.Notes),
	}

	var photos []models.Photo
	var uploaded []string

	err := s.store.InTx(ctx, func(q db.Queries) error {
		photos, uploaded = nil, nil
		if err := q.InsertListing(ctx, listing); err != nil {
			return err
		}

		for _, f := range files {
			path := storage.ObjectPath(listing.OwnerID, listing.ID, f.Filename)
			url, err := s.upload(ctx, path, f)
			if err != nil {
				s.metrics.PhotoUploads.WithLabelValues("failed").Inc()
				s.log.Warn("Фото не загружено, пропускаем",
					zap.Stringer("listing_id", listing.ID),
					zap.String("file", f.Filename),
					zap.Error(err))
				continue
			}
			s.metrics.PhotoUploads.WithLabelValues("ok").Inc()
			uploaded = append(uploaded, path)

			photo := models.Photo{ListingID: listing.ID, URL: url, Path: path, Position: len(photos)}
			if err := q.InsertPhoto(ctx, &photo); err != nil {
				return err
			}
			photos = append(photos, photo)
		}

		listing.CoverURL = models.CoverURL(photos)
		if listing.CoverURL == nil {
			return nil
		}
		return q.SetListingCover(ctx, listing.ID, listing.CoverURL)
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, fmt.Errorf("ошибка сохранения объявления: %w", err)
	}

	s.metrics.ListingsCreated.Inc()
	s.log.Info("Объявление создано",
		zap.Stringer("listing_id", listing.ID),
		zap.Stringer("owner_id", listing.OwnerID),
		zap.Int("photos", len(photos)),
		zap.Int("files", len(files)))

	if photos == nil {
		photos = []models.Photo{}
	}
	return &Detail{Listing: listing, Photos: photos, IsOwner: true, Offerable: []models.Listing{}}, nil
}

func (s *ListingService) upload(ctx context.Context, path string, f Upload) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer r.Close()

	return s.objects.Upload(ctx, path, r, f.Size, f.ContentType)
}

// discard удаляет загруженные объекты после неудачной транзакции; ошибки только логируются
func (s *ListingService) discard(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := s.objects.Delete(ctx, p); err != nil {
			s.log.Warn("Не удалось удалить объект", zap.String("path", p), zap.Error(err))
		}
	}
}

// Browse возвращает все объявления, новые первыми, с фильтрацией в памяти
func (s *ListingService) Browse(ctx context.Context, f Filter) ([]models.Listing, error) {
	all, err := s.store.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объявлений: %w", err)
	}
	return f.Apply(all), nil
}

// Mine возвращает объявления пользователя, новые первыми
func (s *ListingService) Mine(ctx context.Context, caller *models.Identity) ([]models.Listing, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	listings, err := s.store.ListListingsByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объявлений: %w", err)
	}
	return listings, nil
}

// Get возвращает объявление и его фото в порядке загрузки
func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, []models.Photo, error) {
	listing, err := s.store.GetListing(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrListingNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка получения объявления: %w", err)
	}
	photos, err := s.store.ListPhotos(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка получения фото: %w", err)
	}
	return listing, photos, nil
}

// Detail дополняет объявление списком пазлов, которые гость может предложить взамен.
// Без своих объявлений предложить обмен нельзя.
func (s *ListingService) Detail(ctx context.Context, caller *models.Identity, id uuid.UUID) (*Detail, error) {
	listing, photos, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{Listing: listing, Photos: photos, Offerable: []models.Listing{}}
	if caller == nil {
		return d, nil
	}
	if listing.OwnedBy(caller.UserID) {
		d.IsOwner = true
		return d, nil
	}

	own, err := s.store.ListListingsByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объявлений пользователя: %w", err)
	}
	d.Offerable = own
	d.CanPropose = len(own) > 0
	return d, nil
}

// Delete удаляет объявление владельца вместе с фото. Обмены не затрагиваются.
func (s *ListingService) Delete(ctx context.Context, caller *models.Identity, id uuid.UUID) error {
	if caller == nil {
		return ErrNotAuthenticated
	}

	listing, photos, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !listing.OwnedBy(caller.UserID) {
		return ErrNotOwner
	}

	err = s.store.DeleteListing(ctx, id, caller.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrListingNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления объявления: %w", err)
	}

	paths := make([]string, 0, len(photos))
	for _, p := range photos {
		paths = append(paths, p.Path)
	}
	s.discard(ctx, paths)

	s.log.Info("Объявление удалено", zap.Stringer("listing_id", id))
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
