package memdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

// Методы вне транзакции: каждый вызов берёт блокировку и работает с текущим состоянием

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.locked(func(v *view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (u *models.User, err error) {
	err = s.locked(func(v *view) error { u, err = v.GetUserByID(ctx, id); return err })
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	err = s.locked(func(v *view) error { u, err = v.GetUserByEmail(ctx, email); return err })
	return u, err
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (u *models.User, err error) {
	err = s.locked(func(v *view) error { u, err = v.GetUserByTelegramID(ctx, telegramID); return err })
	return u, err
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	return s.locked(func(v *view) error { return v.UpsertProfile(ctx, p) })
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (p *models.Profile, err error) {
	err = s.locked(func(v *view) error { p, err = v.GetProfile(ctx, id); return err })
	return p, err
}

func (s *Store) InsertListing(ctx context.Context, l *models.Listing) error {
	return s.locked(func(v *view) error { return v.InsertListing(ctx, l) })
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (l *models.Listing, err error) {
	err = s.locked(func(v *view) error { l, err = v.GetListing(ctx, id); return err })
	return l, err
}

func (s *Store) ListListings(ctx context.Context) (ls []models.Listing, err error) {
	err = s.locked(func(v *view) error { ls, err = v.ListListings(ctx); return err })
	return ls, err
}

func (s *Store) ListListingsByOwner(ctx context.Context, ownerID uuid.UUID) (ls []models.Listing, err error) {
	err = s.locked(func(v *view) error { ls, err = v.ListListingsByOwner(ctx, ownerID); return err })
	return ls, err
}

func (s *Store) SetListingCover(ctx context.Context, id uuid.UUID, url *string) error {
	return s.locked(func(v *view) error { return v.SetListingCover(ctx, id, url) })
}

func (s *Store) DeleteListing(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.locked(func(v *view) error { return v.DeleteListing(ctx, id, ownerID) })
}

func (s *Store) InsertPhoto(ctx context.Context, p *models.Photo) error {
	return s.locked(func(v *view) error { return v.InsertPhoto(ctx, p) })
}

func (s *Store) ListPhotos(ctx context.Context, listingID uuid.UUID) (ps []models.Photo, err error) {
	err = s.locked(func(v *view) error { ps, err = v.ListPhotos(ctx, listingID); return err })
	return ps, err
}

func (s *Store) InsertTrade(ctx context.Context, t *models.Trade) error {
	return s.locked(func(v *view) error { return v.InsertTrade(ctx, t) })
}

func (s *Store) GetTrade(ctx context.Context, id uuid.UUID) (t *models.Trade, err error) {
	err = s.locked(func(v *view) error { t, err = v.GetTrade(ctx, id); return err })
	return t, err
}

func (s *Store) ListTradesForUser(ctx context.Context, userID uuid.UUID) (ts []models.Trade, err error) {
	err = s.locked(func(v *view) error { ts, err = v.ListTradesForUser(ctx, userID); return err })
	return ts, err
}

func (s *Store) UpdateTradeStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus) (t *models.Trade, err error) {
	err = s.locked(func(v *view) error { t, err = v.UpdateTradeStatus(ctx, id, from, to); return err })
	return t, err
}

func (s *Store) SetTradeTracking(ctx context.Context, id uuid.UUID, role models.Role, code string) (t *models.Trade, err error) {
	err = s.locked(func(v *view) error { t, err = v.SetTradeTracking(ctx, id, role, code); return err })
	return t, err
}

func (s *Store) InsertRating(ctx context.Context, r *models.Rating) error {
	return s.locked(func(v *view) error { return v.InsertRating(ctx, r) })
}

func (s *Store) ListRatingsForTrade(ctx context.Context, tradeID uuid.UUID) (rs []models.Rating, err error) {
	err = s.locked(func(v *view) error { rs, err = v.ListRatingsForTrade(ctx, tradeID); return err })
	return rs, err
}

func (s *Store) ListRatingsForUser(ctx context.Context, rateeID uuid.UUID) (rs []models.Rating, err error) {
	err = s.locked(func(v *view) error { rs, err = v.ListRatingsForUser(ctx, rateeID); return err })
	return rs, err
}
