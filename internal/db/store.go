package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

var (
	// ErrNotFound - запись не найдена
	ErrNotFound = errors.New("db: not found")
	// ErrDuplicate - нарушено ограничение уникальности
	ErrDuplicate = errors.New("db: duplicate")
	// ErrConflict - запись изменилась между чтением и записью
	ErrConflict = errors.New("db: conflict")
)

// Queries - операции над хранилищем, доступные как вне, так и внутри транзакции
type Queries interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	InsertListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context) ([]models.Listing, error)
	ListListingsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error)
	SetListingCover(ctx context.Context, id uuid.UUID, url *string) error
	DeleteListing(ctx context.Context, id, ownerID uuid.UUID) error
	InsertPhoto(ctx context.Context, p *models.Photo) error
	ListPhotos(ctx context.Context, listingID uuid.UUID) ([]models.Photo, error)

	InsertTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	ListTradesForUser(ctx context.Context, userID uuid.UUID) ([]models.Trade, error)
	UpdateTradeStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus) (*models.Trade, error)
	SetTradeTracking(ctx context.Context, id uuid.UUID, role models.Role, code string) (*models.Trade, error)

	InsertRating(ctx context.Context, r *models.Rating) error
	ListRatingsForTrade(ctx context.Context, tradeID uuid.UUID) ([]models.Rating, error)
	ListRatingsForUser(ctx context.Context, rateeID uuid.UUID) ([]models.Rating, error)
}

// Store - хранилище с поддержкой транзакций. fn выполняется атомарно:
// при ошибке все изменения откатываются.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// querier - общее подмножество pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgQueries реализует Queries поверх пула или транзакции
type PgQueries struct {
	q querier
}

// PgStore - Store на PostgreSQL
type PgStore struct {
	PgQueries
	pool *pgxpool.Pool
}

// NewPgStore создаёт хранилище поверх пула соединений
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{PgQueries: PgQueries{q: pool}, pool: pool}
}

// InTx выполняет fn в транзакции
func (s *PgStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx) // Откатываем транзакцию в случае ошибки

	if err := fn(&PgQueries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// mapErr переводит ошибки драйвера в ошибки пакета
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
