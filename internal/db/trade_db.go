package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

const tradeColumns = `id, requester_id, responder_id, requested_listing_id, offered_listing_id, status,
	requester_tracking, responder_tracking, ship_by, created_at, updated_at`

// InsertTrade добавляет обмен. created_at берётся из t, чтобы ship_by и
// created_at считались от одних часов.
func (p *PgQueries) InsertTrade(ctx context.Context, t *models.Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO trades (id, requester_id, responder_id, requested_listing_id, offered_listing_id, status, ship_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING created_at, updated_at
	`, t.ID, t.RequesterID, t.ResponderID, t.RequestedListingID, t.OfferedListingID, t.Status, t.ShipBy,
		t.CreatedAt).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании обмена: %w", mapErr(err))
	}
	return nil
}

// GetTrade получает обмен по ID
func (p *PgQueries) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	t, err := scanTrade(p.q.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// ListTradesForUser возвращает обмены, где пользователь - любая из сторон, новые первыми
func (p *PgQueries) ListTradesForUser(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE requester_id = $1 OR responder_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении обменов: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании обмена: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

// UpdateTradeStatus меняет статус, только если текущий статус равен from.
// Если обмен существует, но статус уже другой, возвращается ErrConflict.
func (p *PgQueries) UpdateTradeStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus) (*models.Trade, error) {
	t, err := scanTrade(p.q.QueryRow(ctx, `
		UPDATE trades SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+tradeColumns, id, from, to))
	if err == nil {
		return t, nil
	}
	if err = mapErr(err); !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("ошибка при обновлении статуса обмена: %w", err)
	}
	if _, err := p.GetTrade(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrConflict
}

// SetTradeTracking записывает трек-номер стороны role, второе поле не меняется
func (p *PgQueries) SetTradeTracking(ctx context.Context, id uuid.UUID, role models.Role, code string) (*models.Trade, error) {
	var column string
	switch role {
	case models.RoleRequester:
		column = "requester_tracking"
	case models.RoleResponder:
		column = "responder_tracking"
	default:
		return nil, fmt.Errorf("неизвестная роль %q", role)
	}

	t, err := scanTrade(p.q.QueryRow(ctx, `
		UPDATE trades SET `+column+` = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+tradeColumns, id, code))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	var reqTracking, respTracking pgtype.Text

	err := row.Scan(&t.ID, &t.RequesterID, &t.ResponderID, &t.RequestedListingID, &t.OfferedListingID,
		&t.Status, &reqTracking, &respTracking, &t.ShipBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.RequesterTracking = textPtr(reqTracking)
	t.ResponderTracking = textPtr(respTracking)
	return &t, nil
}
