// Package memdb - хранилище в памяти с той же семантикой, что и PostgreSQL-реализация.
// Используется в тестах и при локальном запуске без базы.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

type state struct {
	users    []models.User
	profiles map[uuid.UUID]models.Profile
	listings []models.Listing
	photos   []models.Photo
	trades   []models.Trade
	ratings  []models.Rating
}

func (s *state) clone() *state {
	c := &state{
		users:    append([]models.User(nil), s.users...),
		profiles: make(map[uuid.UUID]models.Profile, len(s.profiles)),
		listings: append([]models.Listing(nil), s.listings...),
		photos:   append([]models.Photo(nil), s.photos...),
		trades:   append([]models.Trade(nil), s.trades...),
		ratings:  append([]models.Rating(nil), s.ratings...),
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// Store реализует db.Store в памяти. Транзакция работает на копии
// состояния и подменяет его целиком при успехе.
type Store struct {
	mu    sync.Mutex
	st    *state
	now   func() time.Time
	fails map[string]error
}

var _ db.Store = (*Store)(nil)

// New создаёт пустое хранилище
func New() *Store {
	return &Store{
		st:    &state{profiles: map[uuid.UUID]models.Profile{}},
		now:   time.Now,
		fails: map[string]error{},
	}
}

// SetClock подменяет источник времени для created_at/updated_at
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn заставляет следующий вызов операции op вернуть err
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[op] = err
}

// InTx выполняет fn на копии состояния. fn не должна обращаться к самому Store.
func (s *Store) InTx(ctx context.Context, fn func(q db.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &view{s: s, st: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.takeFail("commit"); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) takeFail(op string) error {
	if err, ok := s.fails[op]; ok {
		delete(s.fails, op)
		return err
	}
	return nil
}

func (s *Store) locked(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{s: s, st: s.st})
}

// view - операции над конкретным состоянием; вызывается под s.mu
type view struct {
	s  *Store
	st *state
}

func (v *view) stamp() time.Time {
	return v.s.now().UTC()
}

func (v *view) CreateUser(ctx context.Context, u *models.User) error {
	if err := v.s.takeFail("CreateUser"); err != nil {
		return err
	}
	for _, existing := range v.st.users {
		if u.Email != nil && existing.Email != nil && strings.EqualFold(*u.Email, *existing.Email) {
			return fmt.Errorf("%w: users_email_key", db.ErrDuplicate)
		}
		if u.TelegramID != nil && existing.TelegramID != nil && *u.TelegramID == *existing.TelegramID {
			return fmt.Errorf("%w: users_telegram_id_key", db.ErrDuplicate)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = v.stamp()
	v.st.users = append(v.st.users, *u)
	return nil
}

func (v *view) findUser(match func(u *models.User) bool) (*models.User, error) {
	for i := range v.st.users {
		if match(&v.st.users[i]) {
			u := v.st.users[i]
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (v *view) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return v.findUser(func(u *models.User) bool { return u.ID == id })
}

func (v *view) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return v.findUser(func(u *models.User) bool { return u.Email != nil && strings.EqualFold(*u.Email, email) })
}

func (v *view) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return v.findUser(func(u *models.User) bool { return u.TelegramID != nil && *u.TelegramID == telegramID })
}

func (v *view) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if err := v.s.takeFail("UpsertProfile"); err != nil {
		return err
	}
	v.st.profiles[p.ID] = *p
	return nil
}

func (v *view) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if err := v.s.takeFail("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := v.st.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (v *view) InsertListing(ctx context.Context, l *models.Listing) error {
	if err := v.s.takeFail("InsertListing"); err != nil {
		return err
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = v.stamp()
	v.st.listings = append(v.st.listings, *l)
	return nil
}

func (v *view) listingIndex(id uuid.UUID) int {
	for i := range v.st.listings {
		if v.st.listings[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *view) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	i := v.listingIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	l := v.st.listings[i]
	return &l, nil
}

// Новые записи добавляются в конец, поэтому обратный порядок - "новые первыми"
func (v *view) ListListings(ctx context.Context) ([]models.Listing, error) {
	if err := v.s.takeFail("ListListings"); err != nil {
		return nil, err
	}
	out := []models.Listing{}
	for i := len(v.st.listings) - 1; i >= 0; i-- {
		out = append(out, v.st.listings[i])
	}
	return out, nil
}

func (v *view) ListListingsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	out := []models.Listing{}
	for i := len(v.st.listings) - 1; i >= 0; i-- {
		if v.st.listings[i].OwnerID == ownerID {
			out = append(out, v.st.listings[i])
		}
	}
	return out, nil
}

func (v *view) SetListingCover(ctx context.Context, id uuid.UUID, url *string) error {
	if err := v.s.takeFail("SetListingCover"); err != nil {
		return err
	}
	i := v.listingIndex(id)
	if i < 0 {
		return db.ErrNotFound
	}
	v.st.listings[i].CoverURL = url
	return nil
}

func (v *view) DeleteListing(ctx context.Context, id, ownerID uuid.UUID) error {
	i := v.listingIndex(id)
	if i < 0 || v.st.listings[i].OwnerID != ownerID {
		return db.ErrNotFound
	}
	v.st.listings = append(v.st.listings[:i:i], v.st.listings[i+1:]...)

	// ON DELETE CASCADE
	photos := v.st.photos[:0:0]
	for _, p := range v.st.photos {
		if p.ListingID != id {
			photos = append(photos, p)
		}
	}
	v.st.photos = photos
	return nil
}

func (v *view) InsertPhoto(ctx context.Context, p *models.Photo) error {
	if err := v.s.takeFail("InsertPhoto"); err != nil {
		return err
	}
	if v.listingIndex(p.ListingID) < 0 {
		return fmt.Errorf("listing_photos: listing %s: %w", p.ListingID, db.ErrNotFound)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = v.stamp()
	v.st.photos = append(v.st.photos, *p)
	return nil
}

func (v *view) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]models.Photo, error) {
	out := []models.Photo{}
	for _, p := range v.st.photos {
		if p.ListingID == listingID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (v *view) InsertTrade(ctx context.Context, t *models.Trade) error {
	if err := v.s.takeFail("InsertTrade"); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = v.stamp()
	}
	t.UpdatedAt = t.CreatedAt
	v.st.trades = append(v.st.trades, *t)
	return nil
}

func (v *view) tradeIndex(id uuid.UUID) int {
	for i := range v.st.trades {
		if v.st.trades[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *view) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	i := v.tradeIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	t := v.st.trades[i]
	return &t, nil
}

func (v *view) ListTradesForUser(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
	out := []models.Trade{}
	for i := len(v.st.trades) - 1; i >= 0; i-- {
		t := v.st.trades[i]
		if t.RequesterID == userID || t.ResponderID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v *view) UpdateTradeStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus) (*models.Trade, error) {
	if err := v.s.takeFail("UpdateTradeStatus"); err != nil {
		return nil, err
	}
	i := v.tradeIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	if v.st.trades[i].Status != from {
		return nil, db.ErrConflict
	}
	v.st.trades[i].Status = to
	v.st.trades[i].UpdatedAt = v.stamp()
	t := v.st.trades[i]
	return &t, nil
}

func (v *view) SetTradeTracking(ctx context.Context, id uuid.UUID, role models.Role, code string) (*models.Trade, error) {
	i := v.tradeIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	c := code
	switch role {
	case models.RoleRequester:
		v.st.trades[i].RequesterTracking = &c
	case models.RoleResponder:
		v.st.trades[i].ResponderTracking = &c
	default:
		return nil, fmt.Errorf("неизвестная роль %q", role)
	}
	v.st.trades[i].UpdatedAt = v.stamp()
	t := v.st.trades[i]
	return &t, nil
}

func (v *view) InsertRating(ctx context.Context, r *models.Rating) error {
	if err := v.s.takeFail("InsertRating"); err != nil {
		return err
	}
	for _, existing := range v.st.ratings {
		if existing.TradeID == r.TradeID && existing.RaterID == r.RaterID {
			return fmt.Errorf("%w: ratings_trade_id_rater_id_key", db.ErrDuplicate)
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = v.stamp()
	v.st.ratings = append(v.st.ratings, *r)
	return nil
}

func (v *view) ListRatingsForTrade(ctx context.Context, tradeID uuid.UUID) ([]models.Rating, error) {
	out := []models.Rating{}
	for _, r := range v.st.ratings {
		if r.TradeID == tradeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (v *view) ListRatingsForUser(ctx context.Context, rateeID uuid.UUID) ([]models.Rating, error) {
	out := []models.Rating{}
	for i := len(v.st.ratings) - 1; i >= 0; i-- {
		if v.st.ratings[i].RateeID == rateeID {
			out = append(out, v.st.ratings[i])
		}
	}
	return out, nil
}
