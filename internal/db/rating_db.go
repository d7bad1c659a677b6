package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

const ratingColumns = `id, trade_id, rater_id, ratee_id, cleanliness, puzzle_ready, pieces_included, ship_speed, comment, created_at`

// InsertRating добавляет отзыв; повторный отзыв того же участника даёт ErrDuplicate
func (p *PgQueries) InsertRating(ctx context.Context, r *models.Rating) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO ratings (id, trade_id, rater_id, ratee_id, cleanliness, puzzle_ready, pieces_included, ship_speed, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, r.ID, r.TradeID, r.RaterID, r.RateeID, r.Cleanliness, r.PuzzleReady, r.PiecesIncluded, r.ShipSpeed, r.Comment).
		Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении отзыва: %w", mapErr(err))
	}
	return nil
}

// ListRatingsForTrade возвращает отзывы по обмену
func (p *PgQueries) ListRatingsForTrade(ctx context.Context, tradeID uuid.UUID) ([]models.Rating, error) {
	return p.queryRatings(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE trade_id = $1 ORDER BY created_at`, tradeID)
}

// ListRatingsForUser возвращает отзывы, полученные пользователем, новые первыми
func (p *PgQueries) ListRatingsForUser(ctx context.Context, rateeID uuid.UUID) ([]models.Rating, error) {
	return p.queryRatings(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE ratee_id = $1 ORDER BY created_at DESC`, rateeID)
}

func (p *PgQueries) queryRatings(ctx context.Context, query string, id uuid.UUID) ([]models.Rating, error) {
	rows, err := p.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении отзывов: %w", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		var comment pgtype.Text
		err := rows.Scan(&r.ID, &r.TradeID, &r.RaterID, &r.RateeID, &r.Cleanliness, &r.PuzzleReady,
			&r.PiecesIncluded, &r.ShipSpeed, &comment, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании отзыва: %w", err)
		}
		r.Comment = textPtr(comment)
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
