package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

func newTestApp(t *testing.T) (*fiber.App, *utils.JWTService, *session.MemoryRevoker) {
	t.Helper()
	jwtService := utils.NewJWTService("secret", time.Hour)
	revoker := session.NewMemoryRevoker()
	auth := NewAuth(jwtService, revoker, zap.NewNop())

	app := fiber.New()
	// в fiber v3 middleware маршрута передаются после обработчика
	app.Get("/private", func(c fiber.Ctx) error {
		return c.SendString(IdentityFrom(c).UserID.String())
	}, auth.Required())
	app.Get("/public", func(c fiber.Ctx) error {
		if id := IdentityFrom(c); id != nil {
			return c.SendString(id.UserID.String())
		}
		return c.SendString("anonymous")
	}, auth.Optional())
	return app, jwtService, revoker
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRequired(t *testing.T) {
	app, jwtService, _ := newTestApp(t)

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/private", "").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/private", "garbage").StatusCode)

	token, _, err := jwtService.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/private", token).StatusCode)
}

func TestRequired_RevokedToken(t *testing.T) {
	app, jwtService, revoker := newTestApp(t)

	token, id, err := jwtService.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), id.TokenID, id.Expires))

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/private", token).StatusCode)
}

func TestOptional(t *testing.T) {
	app, jwtService, _ := newTestApp(t)

	resp := get(t, app, "/public", "garbage")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	token, _, err := jwtService.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/public", token).StatusCode)
}
