package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

// Claims - содержимое токена сессии
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService отвечает за создание и валидацию JWT токенов
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService создаёт новый экземпляр JWTService
func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	return &JWTService{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// GenerateToken создаёт JWT токен с уникальным jti
func (s *JWTService) GenerateToken(userID uuid.UUID, email string) (string, *models.Identity, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return token, claimsIdentity(&claims, userID), nil
}

// ValidateToken проверяет подпись и срок действия и возвращает личность владельца
func (s *JWTService) ValidateToken(tokenString string) (*models.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("некорректный sub: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("в токене нет jti")
	}
	return claimsIdentity(&claims, userID), nil
}

func claimsIdentity(c *Claims, userID uuid.UUID) *models.Identity {
	return &models.Identity{
		UserID:  userID,
		Email:   c.Email,
		TokenID: c.ID,
		Expires: c.ExpiresAt.Time,
	}
}
