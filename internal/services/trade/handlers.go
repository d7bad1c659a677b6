package trade

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// CreateTrade создает новое предложение обмена
func (s *TradeService) CreateTrade(c fiber.Ctx) error {
	var requestData struct {
		RequestedListingID string `json:"requested_listing_id"`
		OfferedListingID   string `json:"offered_listing_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	requestedID, err := uuid.Parse(requestData.RequestedListingID)
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrListingNotFound.Error())
	}
	// Пустое или битое значение - значит, пазл для обмена не выбран
	offeredID, _ := uuid.Parse(requestData.OfferedListingID)

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	trade, err := s.Propose(ctx, middleware.IdentityFrom(c), requestedID, offeredID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": trade.ID, "trade": trade})
}

// GetTrades возвращает обмены текущего пользователя
func (s *TradeService) GetTrades(c fiber.Ctx) error {
	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	trades, err := s.List(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"trades": trades})
}

// GetTrade возвращает карточку обмена
func (s *TradeService) GetTrade(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrTradeNotFound.Error())
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	view, err := s.Get(ctx, middleware.IdentityFrom(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(view)
}

// UpdateTradeStatus меняет статус обмена
func (s *TradeService) UpdateTradeStatus(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrTradeNotFound.Error())
	}

	var requestData struct {
		Status string `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	trade, err := s.Transition(ctx, middleware.IdentityFrom(c), id, models.TradeStatus(requestData.Status))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"trade": trade})
}

// UpdateTracking сохраняет трек-номер стороны вызывающего
func (s *TradeService) UpdateTracking(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrTradeNotFound.Error())
	}

	var requestData struct {
		Tracking string `json:"tracking"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	trade, err := s.SetTracking(ctx, middleware.IdentityFrom(c), id, requestData.Tracking)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"trade": trade})
}

func (s *TradeService) writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrLoginRequired):
		return utils.ErrorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNoOfferSelected), errors.Is(err, ErrSelfTrade), errors.Is(err, ErrInvalidStatus):
		return utils.ErrorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOfferNotOwned), errors.Is(err, ErrResidency), errors.Is(err, ErrNotParty):
		return utils.ErrorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrTradeNotFound):
		return utils.ErrorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrTransitionConflict):
		return utils.ErrorJSON(c, fiber.StatusConflict, err.Error())
	}
	return utils.InternalError(c, s.log, err)
}
