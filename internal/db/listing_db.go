package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

const listingColumns = `id, owner_id, title, brand, pieces, theme, condition, missing_pieces, notes, cover_url, created_at`

// InsertListing добавляет объявление, created_at проставляет база
func (p *PgQueries) InsertListing(ctx context.Context, l *models.Listing) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO listings (id, owner_id, title, brand, pieces, theme, condition, missing_pieces, notes, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, l.ID, l.OwnerID, l.Title, l.Brand, l.Pieces, l.Theme, l.Condition, l.MissingPieces, l.Notes, l.CoverURL).
		Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании объявления: %w", mapErr(err))
	}
	return nil
}

// GetListing получает объявление по ID
func (p *PgQueries) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := scanListing(p.q.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

// ListListings возвращает все объявления, новые первыми
func (p *PgQueries) ListListings(ctx context.Context) ([]models.Listing, error) {
	return p.queryListings(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`)
}

// ListListingsByOwner возвращает объявления владельца, новые первыми
func (p *PgQueries) ListListingsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	return p.queryListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// SetListingCover записывает обложку; nil сбрасывает её
func (p *PgQueries) SetListingCover(ctx context.Context, id uuid.UUID, url *string) error {
	tag, err := p.q.Exec(ctx, `UPDATE listings SET cover_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении обложки: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListing удаляет объявление владельца. Фото удаляются каскадно,
// обмены со ссылками на объявление не затрагиваются.
func (p *PgQueries) DeleteListing(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM listings WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении объявления: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertPhoto добавляет запись о фотографии
func (p *PgQueries) InsertPhoto(ctx context.Context, ph *models.Photo) error {
	if ph.ID == uuid.Nil {
		ph.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO listing_photos (id, listing_id, url, path, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, ph.ID, ph.ListingID, ph.URL, ph.Path, ph.Position).Scan(&ph.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении фото: %w", mapErr(err))
	}
	return nil
}

// Фото одного объявления делят created_at транзакции, порядок задаёт position
const listPhotosSQL = `
	SELECT id, listing_id, url, path, position, created_at
	FROM listing_photos
	WHERE listing_id = $1
	ORDER BY position, created_at, id
`

// ListPhotos возвращает фото объявления в порядке загрузки
func (p *PgQueries) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]models.Photo, error) {
	rows, err := p.q.Query(ctx, listPhotosSQL, listingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении фото: %w", err)
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		var ph models.Photo
		if err := rows.Scan(&ph.ID, &ph.ListingID, &ph.URL, &ph.Path, &ph.Position, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании фото: %w", err)
		}
		photos = append(photos, ph)
	}
	return photos, rows.Err()
}

func (p *PgQueries) queryListings(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении объявлений: %w", err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании объявления: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var brand, theme, condition, missing, notes, cover pgtype.Text
	var pieces pgtype.Int4

	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &brand, &pieces, &theme,
		&condition, &missing, &notes, &cover, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Преобразуем nullable поля
	l.Brand = textPtr(brand)
	l.Theme = textPtr(theme)
	l.Condition = textPtr(condition)
	l.MissingPieces = textPtr(missing)
	l.Notes = textPtr(notes)
	l.CoverURL = textPtr(cover)
	if pieces.Valid {
		n := int(pieces.Int32)
		l.Pieces = &n
	}
	return &l, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
