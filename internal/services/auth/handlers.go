package auth

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// SignUpHandler регистрирует пользователя по email и паролю
func (s *AuthService) SignUpHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Zip      string `json:"zip"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	sess, err := s.SignUp(ctx, payload.Email, payload.Password, payload.Zip)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// LoginHandler выдаёт токен по email и паролю
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	sess, err := s.SignIn(ctx, payload.Email, payload.Password)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(sess)
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return utils.ErrorJSON(c, fiber.StatusBadRequest, "Invalid request")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	sess, err := s.SignInTelegram(ctx, payload.InitData)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(sess)
}

// LogoutHandler отзывает текущий токен
func (s *AuthService) LogoutHandler(c fiber.Ctx) error {
	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	if err := s.SignOut(ctx, middleware.IdentityFrom(c)); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MeHandler возвращает текущего пользователя
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	me, err := s.Me(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(me)
}

func (s *AuthService) writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrZipRequired):
		return utils.ErrorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return utils.ErrorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidTelegramData):
		return utils.ErrorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTelegramDisabled):
		return utils.ErrorJSON(c, fiber.StatusServiceUnavailable, err.Error())
	}
	return utils.InternalError(c, s.log, err)
}
