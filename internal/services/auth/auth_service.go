package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/events"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

const (
	minPasswordLen = 8
	initDataTTL    = 24 * time.Hour
)

// Session - выданный токен и его владелец
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *models.User    `json:"user"`
	Profile   *models.Profile `json:"profile"`
}

// Me - данные текущего пользователя
type Me struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
	Country string          `json:"country"`
}

// AuthService – регистрация, вход и выход пользователей
type AuthService struct {
	store    db.Store
	jwt      *utils.JWTService
	revoker  session.Revoker
	events   events.Publisher
	metrics  *metrics.Metrics
	botToken string
	log      *zap.Logger

	hashCost      int
	parseInitData func(raw string) (initdata.InitData, error)
}

// NewAuthService – конструктор AuthService
func NewAuthService(store db.Store, jwtService *utils.JWTService, revoker session.Revoker,
	publisher events.Publisher, m *metrics.Metrics, botToken string, log *zap.Logger) *AuthService {
	s := &AuthService{
		store:    store,
		jwt:      jwtService,
		revoker:  revoker,
		events:   publisher,
		metrics:  m,
		botToken: botToken,
		log:      log.Named("auth"),
		hashCost: bcrypt.DefaultCost,
	}
	s.parseInitData = s.validateInitData
	return s
}

// SignUp создаёт пользователя с профилем US и сразу выдаёт токен
func (s *AuthService) SignUp(ctx context.Context, email, password, zip string) (*Session, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return nil, ErrZipRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	country := models.DefaultCountry
	user := &models.User{Email: &email, PasswordHash: string(hash)}
	profile := &models.Profile{Country: &country, Zip: &zip}

	err = s.store.InTx(ctx, func(q db.Queries) error {
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		profile.ID = user.ID
		return q.UpsertProfile(ctx, profile)
	})
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации: %w", err)
	}

	s.log.Info("Пользователь зарегистрирован", zap.Stringer("user_id", user.ID))
	return s.issue(ctx, user, profile, "password")
}

// SignIn проверяет пароль и выдаёт токен
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}
	if user.PasswordHash == "" {
		// учётная запись создана через Telegram
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profileOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, profile, "password")
}

// SignInTelegram проверяет initData мини-приложения, находит или создаёт пользователя
func (s *AuthService) SignInTelegram(ctx context.Context, rawInitData string) (*Session, error) {
	data, err := s.parseInitData(rawInitData)
	if err != nil {
		return nil, err
	}
	if data.User.ID == 0 {
		return nil, ErrInvalidTelegramData
	}

	var user *models.User
	var profile *models.Profile
	err = s.store.InTx(ctx, func(q db.Queries) error {
		existing, err := q.GetUserByTelegramID(ctx, data.User.ID)
		switch {
		case err == nil:
			user = existing
			profile, err = q.GetProfile(ctx, user.ID)
			if errors.Is(err, db.ErrNotFound) {
				return nil
			}
			return err
		case !errors.Is(err, db.ErrNotFound):
			return err
		}

		tgID := data.User.ID
		user = &models.User{TelegramID: &tgID}
		if data.User.Username != "" {
			username := data.User.Username
			user.Username = &username
		}
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}

		country := models.DefaultCountry
		profile = &models.Profile{ID: user.ID, Country: &country}
		if err := q.UpsertProfile(ctx, profile); err != nil {
			return err
		}
		s.log.Info("Создан пользователь Telegram", zap.Stringer("user_id", user.ID), zap.Int64("telegram_id", tgID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка входа через Telegram: %w", err)
	}

	return s.issue(ctx, user, profile, "telegram")
}

func (s *AuthService) validateInitData(raw string) (initdata.InitData, error) {
	if s.botToken == "" {
		return initdata.InitData{}, ErrTelegramDisabled
	}
	if err := initdata.Validate(raw, s.botToken, initDataTTL); err != nil {
		s.log.Debug("initData не прошла проверку", zap.Error(err))
		return initdata.InitData{}, ErrInvalidTelegramData
	}
	data, err := initdata.Parse(raw)
	if err != nil {
		return initdata.InitData{}, ErrInvalidTelegramData
	}
	return data, nil
}

// SignOut отзывает токен до окончания его срока
func (s *AuthService) SignOut(ctx context.Context, caller *models.Identity) error {
	if caller == nil {
		return ErrNotAuthenticated
	}
	if err := s.revoker.Revoke(ctx, caller.TokenID, caller.Expires); err != nil {
		return fmt.Errorf("ошибка завершения сессии: %w", err)
	}
	s.publish(ctx, events.SessionEvent{Kind: events.SessionSignedOut, UserID: caller.UserID})
	return nil
}

// Me возвращает пользователя и его профиль
func (s *AuthService) Me(ctx context.Context, caller *models.Identity) (*Me, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	user, err := s.store.GetUserByID(ctx, caller.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	profile, err := s.profileOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Me{User: user, Profile: profile, Country: profile.ResolvedCountry()}, nil
}

func (s *AuthService) profileOf(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return profile, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User, profile *models.Profile, method string) (*Session, error) {
	token, id, err := s.jwt.GenerateToken(user.ID, models.StringValue(user.Email))
	if err != nil {
		return nil, err
	}
	s.metrics.SignIns.WithLabelValues(method).Inc()
	s.publish(ctx, events.SessionEvent{Kind: events.SessionSignedIn, UserID: user.ID, Method: method})
	return &Session{Token: token, ExpiresAt: id.Expires, User: user, Profile: profile}, nil
}

// publish не влияет на результат входа: событие теряется с записью в лог
func (s *AuthService) publish(ctx context.Context, ev events.SessionEvent) {
	ev.At = time.Now().UTC()
	if err := s.events.PublishSession(ctx, ev); err != nil {
		s.log.Warn("Не удалось опубликовать событие сессии", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
