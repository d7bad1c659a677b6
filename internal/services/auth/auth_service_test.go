package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/puzzleswap-api/internal/db/memdb"
	"github.com/rajivgeraev/puzzleswap-api/internal/events"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSession(ctx context.Context, ev events.SessionEvent) error {
	return m.Called(ev.Kind, ev.UserID).Error(0)
}

func (m *mockPublisher) Close() {}

type fixture struct {
	svc     *AuthService
	store   *memdb.Store
	revoker *session.MemoryRevoker
	pub     *mockPublisher
	jwt     *utils.JWTService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memdb.New(),
		revoker: session.NewMemoryRevoker(),
		pub:     &mockPublisher{},
		jwt:     utils.NewJWTService("secret", time.Hour),
	}
	f.pub.On("PublishSession", mock.Anything, mock.Anything).Return(nil)
	f.svc = NewAuthService(f.store, f.jwt, f.revoker, f.pub, metrics.New(), "", zap.NewNop())
	f.svc.hashCost = bcrypt.MinCost
	return f
}

func TestSignUp_CreatesUSProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignUp(ctx, " Ann@Example.com ", "password1", "94110")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ann@example.com", *sess.User.Email)

	profile, err := f.store.GetProfile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "US", profile.ResolvedCountry())
	assert.Equal(t, "94110", *profile.Zip)

	f.pub.AssertCalled(t, "PublishSession", events.SessionSignedIn, sess.User.ID)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "not-an-email", "password1", "94110")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.SignUp(ctx, "a@example.com", "short", "94110")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.svc.SignUp(ctx, "a@example.com", "password1", "  ")
	assert.ErrorIs(t, err, ErrZipRequired)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@example.com", "password1", "10001")
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, "A@example.com", "password2", "10001")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@example.com", "password1", "10001")
	require.NoError(t, err)

	sess, err := f.svc.SignIn(ctx, "a@example.com", "password1")
	require.NoError(t, err)

	id, err := f.jwt.ValidateToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id.UserID)

	_, err = f.svc.SignIn(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInTelegram_FindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.parseInitData = func(raw string) (initdata.InitData, error) {
		if raw != "signed" {
			return initdata.InitData{}, ErrInvalidTelegramData
		}
		return initdata.InitData{User: initdata.User{ID: 4242, Username: "puzzler"}}, nil
	}

	first, err := f.svc.SignInTelegram(ctx, "signed")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), *first.User.TelegramID)
	assert.Equal(t, "US", first.Profile.ResolvedCountry())

	second, err := f.svc.SignInTelegram(ctx, "signed")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = f.svc.SignInTelegram(ctx, "forged")
	assert.ErrorIs(t, err, ErrInvalidTelegramData)
}

func TestSignInTelegram_NotConfigured(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SignInTelegram(context.Background(), "query_id=1")
	assert.ErrorIs(t, err, ErrTelegramDisabled)
}

func TestSignOut_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignUp(ctx, "a@example.com", "password1", "10001")
	require.NoError(t, err)
	id, err := f.jwt.ValidateToken(sess.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, id))

	revoked, err := f.revoker.IsRevoked(ctx, id.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)
	f.pub.AssertCalled(t, "PublishSession", events.SessionSignedOut, id.UserID)

	assert.ErrorIs(t, f.svc.SignOut(ctx, nil), ErrNotAuthenticated)
}

func TestPublishFailureDoesNotBreakSignIn(t *testing.T) {
	f := newFixture(t)
	f.pub.ExpectedCalls = nil
	f.pub.On("PublishSession", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	_, err := f.svc.SignUp(context.Background(), "a@example.com", "password1", "10001")
	assert.NoError(t, err)
}

func TestHandlers_SignUpMeLogout(t *testing.T) {
	f := newFixture(t)
	app := fiber.New()
	f.svc.SetupRoutes(app, middleware.NewAuth(f.jwt, f.revoker, zap.NewNop()))

	body, _ := json.Marshal(map[string]string{"email": "a@example.com", "password": "password1", "zip": "10001"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))

	authed := func(method, path string) *http.Response {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+sess.Token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp = authed(http.MethodGet, "/api/auth/me")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me struct {
		Country string `json:"country"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "US", me.Country)

	assert.Equal(t, fiber.StatusNoContent, authed(http.MethodPost, "/api/auth/logout").StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, authed(http.MethodGet, "/api/auth/me").StatusCode)
}

func TestHandlers_LoginBadCredentials(t *testing.T) {
	f := newFixture(t)
	app := fiber.New()
	f.svc.SetupRoutes(app, middleware.NewAuth(f.jwt, f.revoker, zap.NewNop()))

	body, _ := json.Marshal(map[string]string{"email": "x@example.com", "password": "whatever1"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
