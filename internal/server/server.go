// Package server собирает приложение Fiber из сервисов.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/events"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/services/auth"
	"github.com/rajivgeraev/puzzleswap-api/internal/services/listing"
	"github.com/rajivgeraev/puzzleswap-api/internal/services/rating"
	"github.com/rajivgeraev/puzzleswap-api/internal/services/trade"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/storage"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// Восемь фотографий с телефона легко превышают лимит fiber по умолчанию
const bodyLimit = 64 << 20

// Deps - внешние зависимости приложения
type Deps struct {
	Store            db.Store
	Objects          storage.ObjectStore
	Revoker          session.Revoker
	Events           events.Publisher
	Metrics          *metrics.Metrics
	JWT              *utils.JWTService
	TelegramBotToken string
	Log              *zap.Logger
}

// New создаёт приложение со всеми маршрутами
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "PuzzleSwap API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler(d.Log),
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(d.Metrics.Middleware())
	app.Use(middleware.RequestLogger(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/api", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "PuzzleSwap API",
			"tagline": "Trade the puzzle you finished for one you haven't.",
			"country": "US-only swaps for now.",
		})
	})
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := middleware.NewAuth(d.JWT, d.Revoker, d.Log)

	// Создаём сервисы
	authService := auth.NewAuthService(d.Store, d.JWT, d.Revoker, d.Events, d.Metrics, d.TelegramBotToken, d.Log)
	listingService := listing.NewListingService(d.Store, d.Objects, d.Metrics, d.Log)
	tradeService := trade.NewTradeService(d.Store, d.Metrics, d.Log)
	ratingService := rating.NewRatingService(d.Store, d.Metrics, d.Log)

	// Регистрируем маршруты
	authService.SetupRoutes(app, authMiddleware)
	listingService.SetupRoutes(app, authMiddleware)
	tradeService.SetupRoutes(app, authMiddleware)
	ratingService.SetupRoutes(app, authMiddleware)

	return app
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		// Проверяем, является ли ошибка из Fiber
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Необработанная ошибка", zap.String("path", c.Path()), zap.Error(err))
		}

		// Отправляем ошибку в JSON
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
