package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	userID := uuid.New()

	token, issued, err := s.GenerateToken(userID, "a@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "a@example.com", id.Email)
	assert.Equal(t, issued.TokenID, id.TokenID)
}

func TestJWT_UniqueTokenIDs(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	_, a, err := s.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	_, b, err := s.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestJWT_Expired(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}
