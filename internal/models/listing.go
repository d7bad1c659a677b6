package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxPhotosPerListing ограничивает количество фото за одно создание объявления
const MaxPhotosPerListing = 8

// Listing представляет пазл, выставленный на обмен
type Listing struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Title         string    `json:"title"`
	Brand         *string   `json:"brand"`
	Pieces        *int      `json:"pieces"`
	Theme         *string   `json:"theme"`
	Condition     *string   `json:"condition"`
	MissingPieces *string   `json:"missing_pieces"`
	Notes         *string   `json:"notes"`
	CoverURL      *string   `json:"cover_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// OwnedBy проверяет, принадлежит ли объявление пользователю
func (l *Listing) OwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}

// Photo представляет фотографию объявления в объектном хранилище
type Photo struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	URL       string    `json:"url"`
	Path      string    `json:"-"`
	Position  int       `json:"position"` // порядок загрузки внутри объявления, с нуля
	CreatedAt time.Time `json:"created_at"`
}

// CoverURL возвращает URL первой фотографии или nil, если фото нет
func CoverURL(photos []Photo) *string {
	if len(photos) == 0 {
		return nil
	}
	url := photos[0].URL
	return &url
}

// StringValue разворачивает nullable строку
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IntValue разворачивает nullable число
func IntValue(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
