package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

// View - обмен глазами одного из участников
type View struct {
	Trade              *models.Trade        `json:"trade"`
	Role               models.Role          `json:"role"`
	AllowedTransitions []models.TradeStatus `json:"allowed_transitions"`
	RequestedListing   *models.Listing      `json:"requested_listing"`
	OfferedListing     *models.Listing      `json:"offered_listing"`
	Ratings            []models.Rating      `json:"ratings"`
}

// TradeService представляет сервис для работы с обменами
type TradeService struct {
	store   db.Store
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(store db.Store, m *metrics.Metrics, log *zap.Logger) *TradeService {
	return &TradeService{store: store, metrics: m, log: log.Named("trade"), now: time.Now}
}

// AllowedTransitions - статусы, доступные роли из текущего статуса
func AllowedTransitions(status models.TradeStatus, role models.Role) []models.TradeStatus {
	return models.AllowedTransitions(status, role)
}

// Propose создаёт предложение обмена offeredID на requestedID.
// Чтение профилей и вставка идут в одной транзакции; объявления не резервируются.
func (s *TradeService) Propose(ctx context.Context, caller *models.Identity, requestedID, offeredID uuid.UUID) (*models.Trade, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if offeredID == uuid.Nil {
		return nil, ErrNoOfferSelected
	}

	var trade *models.Trade
	err := s.store.InTx(ctx, func(q db.Queries) error {
		requested, err := q.GetListing(ctx, requestedID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrListingNotFound
		}
		if err != nil {
			return err
		}
		if requested.OwnedBy(caller.UserID) {
			return ErrSelfTrade
		}

		offered, err := q.GetListing(ctx, offeredID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrOfferNotOwned
		}
		if err != nil {
			return err
		}
		if !offered.OwnedBy(caller.UserID) {
			return ErrOfferNotOwned
		}

		// Отсутствующий профиль считается US
		for _, userID := range []uuid.UUID{caller.UserID, requested.OwnerID} {
			profile, err := q.GetProfile(ctx, userID)
			if err != nil && !errors.Is(err, db.ErrNotFound) {
				return err
			}
			if profile.ResolvedCountry() != models.DefaultCountry {
				return ErrResidency
			}
		}

		now := s.now().UTC()
		trade = &models.Trade{
			ID:                 uuid.New(),
			RequesterID:        caller.UserID,
			ResponderID:        requested.OwnerID,
			RequestedListingID: requested.ID,
			OfferedListingID:   offered.ID,
			Status:             models.StatusPending,
			ShipBy:             now.Add(models.ShipByWindow),
			CreatedAt:          now,
		}
		return q.InsertTrade(ctx, trade)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка создания обмена: %w", err)
	}

	s.metrics.TradesProposed.Inc()
	s.log.Info("Предложен обмен",
		zap.Stringer("trade_id", trade.ID),
		zap.Stringer("requester_id", trade.RequesterID),
		zap.Stringer("responder_id", trade.ResponderID))
	return trade, nil
}

// Transition переводит обмен в статус to, если это разрешено роли вызывающего.
// Запись выполняется только при неизменившемся статусе.
func (s *TradeService) Transition(ctx context.Context, caller *models.Identity, tradeID uuid.UUID, to models.TradeStatus) (*models.Trade, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	trade, role, err := s.load(ctx, caller, tradeID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(trade.Status, to, role) {
		return nil, ErrIllegalTransition
	}

	updated, err := s.store.UpdateTradeStatus(ctx, trade.ID, trade.Status, to)
	switch {
	case errors.Is(err, db.ErrConflict):
		return nil, ErrTransitionConflict
	case errors.Is(err, db.ErrNotFound):
		return nil, ErrTradeNotFound
	case err != nil:
		return nil, fmt.Errorf("ошибка смены статуса: %w", err)
	}

	s.metrics.TradeTransitions.WithLabelValues(string(to)).Inc()
	s.log.Info("Статус обмена изменён",
		zap.Stringer("trade_id", trade.ID),
		zap.String("from", string(trade.Status)),
		zap.String("to", string(to)),
		zap.String("role", string(role)))
	return updated, nil
}

// SetTracking записывает трек-номер в поле стороны вызывающего. Формат не проверяется.
func (s *TradeService) SetTracking(ctx context.Context, caller *models.Identity, tradeID uuid.UUID, code string) (*models.Trade, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}

	_, role, err := s.load(ctx, caller, tradeID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.SetTradeTracking(ctx, tradeID, role, code)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения трек-номера: %w", err)
	}
	return updated, nil
}

// Get возвращает обмен с ролью, доступными переходами, объявлениями и отзывами
func (s *TradeService) Get(ctx context.Context, caller *models.Identity, tradeID uuid.UUID) (*View, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}

	trade, role, err := s.load(ctx, caller, tradeID)
	if err != nil {
		return nil, err
	}

	view := &View{
		Trade:              trade,
		Role:               role,
		AllowedTransitions: AllowedTransitions(trade.Status, role),
	}
	if view.AllowedTransitions == nil {
		view.AllowedTransitions = []models.TradeStatus{}
	}

	// Объявление могли удалить после предложения
	if view.RequestedListing, err = s.optionalListing(ctx, trade.RequestedListingID); err != nil {
		return nil, err
	}
	if view.OfferedListing, err = s.optionalListing(ctx, trade.OfferedListingID); err != nil {
		return nil, err
	}

	if view.Ratings, err = s.store.ListRatingsForTrade(ctx, trade.ID); err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}
	return view, nil
}

// List возвращает обмены пользователя, новые первыми
func (s *TradeService) List(ctx context.Context, caller *models.Identity) ([]models.Trade, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	trades, err := s.store.ListTradesForUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обменов: %w", err)
	}
	return trades, nil
}

func (s *TradeService) load(ctx context.Context, caller *models.Identity, tradeID uuid.UUID) (*models.Trade, models.Role, error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, models.RoleNone, ErrTradeNotFound
	}
	if err != nil {
		return nil, models.RoleNone, fmt.Errorf("ошибка получения обмена: %w", err)
	}

	role := trade.RoleOf(caller.UserID)
	if role == models.RoleNone {
		return nil, models.RoleNone, ErrNotParty
	}
	return trade, role, nil
}

func (s *TradeService) optionalListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объявления: %w", err)
	}
	return l, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrListingNotFound, ErrSelfTrade, ErrOfferNotOwned, ErrResidency} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
