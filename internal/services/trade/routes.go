package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов
func (s *TradeService) SetupRoutes(app *fiber.App, auth *middleware.Auth) {
	app.Get("/api/trades", s.GetTrades, auth.Required())
	app.Post("/api/trades", s.CreateTrade, auth.Required())

	api := app.Group("/api/trades")
	api.Get("/:id", s.GetTrade, auth.Required())
	api.Put("/:id/status", s.UpdateTradeStatus, auth.Required())
	api.Put("/:id/tracking", s.UpdateTracking, auth.Required())
}
