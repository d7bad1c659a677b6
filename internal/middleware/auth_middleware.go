package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

const identityKey = "identity"

// Auth проверяет Bearer-токен и кладёт models.Identity в контекст запроса
type Auth struct {
	jwt     *utils.JWTService
	revoker session.Revoker
	log     *zap.Logger
}

// NewAuth создаёт middleware аутентификации
func NewAuth(jwtService *utils.JWTService, revoker session.Revoker, log *zap.Logger) *Auth {
	return &Auth{jwt: jwtService, revoker: revoker, log: log.Named("auth")}
}

// Required отклоняет запрос без действующего токена
func (a *Auth) Required() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		id, msg := a.authenticate(c, authHeader)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// Optional пропускает анонимные запросы; недействительный токен тоже считается анонимом
func (a *Auth) Optional() fiber.Handler {
	return func(c fiber.Ctx) error {
		if authHeader := c.Get("Authorization"); authHeader != "" {
			if id, _ := a.authenticate(c, authHeader); id != nil {
				c.Locals(identityKey, id)
			}
		}
		return c.Next()
	}
}

func (a *Auth) authenticate(c fiber.Ctx, authHeader string) (*models.Identity, string) {
	// Проверяем Bearer токен
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "Invalid authorization header format"
	}

	id, err := a.jwt.ValidateToken(parts[1])
	if err != nil {
		return nil, "Invalid or expired token"
	}

	revoked, err := a.revoker.IsRevoked(c.Context(), id.TokenID)
	if err != nil {
		a.log.Error("Ошибка проверки отзыва токена", zap.Error(err))
		return nil, "Session check failed"
	}
	if revoked {
		return nil, "Session has ended"
	}
	return id, ""
}

// IdentityFrom возвращает пользователя запроса или nil для анонима
func IdentityFrom(c fiber.Ctx) *models.Identity {
	id, _ := c.Locals(identityKey).(*models.Identity)
	return id
}
