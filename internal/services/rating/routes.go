package rating

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для отзывов
func (s *RatingService) SetupRoutes(app *fiber.App, auth *middleware.Auth) {
	app.Get("/api/trades/:id/ratings", s.GetTradeRatings, auth.Required())
	app.Post("/api/trades/:id/ratings", s.SubmitRating, auth.Required())

	// Публичный профиль продавца
	app.Get("/api/users/:id/ratings", s.GetUserRatings)
}
