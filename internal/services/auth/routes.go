package auth

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"

	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App, auth *middleware.Auth) {
	api := app.Group("/api/auth")

	// Ограничиваем попытки входа и регистрации с одного IP
	credentials := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c fiber.Ctx) error {
			return utils.ErrorJSON(c, fiber.StatusTooManyRequests, "Too many attempts. Try again in a minute.")
		},
	})

	api.Post("/signup", s.SignUpHandler, credentials)
	api.Post("/login", s.LoginHandler, credentials)
	api.Post("/telegram", s.TelegramAuthHandler, credentials)

	// Защищенные маршруты
	api.Post("/logout", s.LogoutHandler, auth.Required())
	api.Get("/me", s.MeHandler, auth.Required())
}
