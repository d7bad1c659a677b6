package listing

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений
func (s *ListingService) SetupRoutes(app *fiber.App, auth *middleware.Auth) {
	// Публичный маршрут для списка объявлений
	app.Get("/api/listings", s.GetPublicListings)
	app.Post("/api/listings", s.CreateListing, auth.Required())

	api := app.Group("/api/listings")

	// /my регистрируется раньше /:id
	api.Get("/my", s.GetMyListings, auth.Required())

	// Карточка доступна без входа; с токеном показываются пазлы для обмена
	api.Get("/:id", s.GetListing, auth.Optional())
	api.Delete("/:id", s.DeleteListing, auth.Required())
}
