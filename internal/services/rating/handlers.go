package rating

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// SubmitRating сохраняет отзыв по обмену
func (s *RatingService) SubmitRating(c fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrTradeNotFound.Error())
	}

	var in Input
	if err := c.Bind().Body(&in); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	r, err := s.Submit(ctx, middleware.IdentityFrom(c), tradeID, in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rating": r})
}

// GetTradeRatings возвращает отзывы по обмену
func (s *RatingService) GetTradeRatings(c fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrTradeNotFound.Error())
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	ratings, err := s.ListForTrade(ctx, middleware.IdentityFrom(c), tradeID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": ratings})
}

// GetUserRatings возвращает отзывы о пользователе
func (s *RatingService) GetUserRatings(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, "User not found.")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	ratings, err := s.ListForUser(ctx, userID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": ratings})
}

func (s *RatingService) writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return utils.ErrorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTradeNotFound):
		return utils.ErrorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParty):
		return utils.ErrorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidRating):
		return utils.ErrorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyRated):
		return utils.ErrorJSON(c, fiber.StatusConflict, err.Error())
	}
	return utils.InternalError(c, s.log, err)
}
