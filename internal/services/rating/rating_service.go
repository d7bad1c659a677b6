package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

// Input - оценки полученного пазла
type Input struct {
	Cleanliness    int                   `json:"cleanliness"`
	PuzzleReady    int                   `json:"puzzle_ready"`
	PiecesIncluded models.PiecesIncluded `json:"pieces_included"`
	ShipSpeed      int                   `json:"ship_speed"`
	Comment        string                `json:"comment"`
}

func (in Input) valid() bool {
	for _, score := range []int{in.Cleanliness, in.PuzzleReady, in.ShipSpeed} {
		if score < 1 || score > 5 {
			return false
		}
	}
	return in.PiecesIncluded.IsValid()
}

// RatingService - отзывы участников обмена друг о друге
type RatingService struct {
	store   db.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewRatingService создает новый экземпляр RatingService
func NewRatingService(store db.Store, m *metrics.Metrics, log *zap.Logger) *RatingService {
	return &RatingService{store: store, metrics: m, log: log.Named("rating")}
}

// Submit сохраняет отзыв вызывающего о второй стороне обмена.
// Статус обмена не проверяется; один участник оценивает обмен один раз.
func (s *RatingService) Submit(ctx context.Context, caller *models.Identity, tradeID uuid.UUID, in Input) (*models.Rating, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	trade, err := s.store.GetTrade(ctx, tradeID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обмена: %w", err)
	}
	// Сторонний пользователь не оценивает: без роли в обмене не определить, кого он оценивает
	if trade.RoleOf(caller.UserID) == models.RoleNone {
		return nil, ErrNotParty
	}
	if !in.valid() {
		return nil, ErrInvalidRating
	}

	r := &models.Rating{
		ID:             uuid.New(),
		TradeID:        trade.ID,
		RaterID:        caller.UserID,
		RateeID:        trade.Counterparty(caller.UserID),
		Cleanliness:    in.Cleanliness,
		PuzzleReady:    in.PuzzleReady,
		PiecesIncluded: in.PiecesIncluded,
		ShipSpeed:      in.ShipSpeed,
	}
	if comment := strings.TrimSpace(in.Comment); comment != "" {
		r.Comment = &comment
	}

	err = s.store.InsertRating(ctx, r)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrAlreadyRated
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения отзыва: %w", err)
	}

	s.metrics.RatingsSubmitted.Inc()
	s.log.Info("Отзыв сохранён",
		zap.Stringer("trade_id", r.TradeID),
		zap.Stringer("rater_id", r.RaterID),
		zap.Stringer("ratee_id", r.RateeID))
	return r, nil
}

// ListForTrade возвращает отзывы по обмену; доступно только участникам
func (s *RatingService) ListForTrade(ctx context.Context, caller *models.Identity, tradeID uuid.UUID) ([]models.Rating, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	trade, err := s.store.GetTrade(ctx, tradeID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обмена: %w", err)
	}
	if trade.RoleOf(caller.UserID) == models.RoleNone {
		return nil, ErrNotParty
	}

	ratings, err := s.store.ListRatingsForTrade(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}
	return ratings, nil
}

// ListForUser возвращает отзывы, полученные пользователем, новые первыми
func (s *RatingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	ratings, err := s.store.ListRatingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}
	return ratings, nil
}
