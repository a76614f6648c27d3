package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewAuthService(testSecret, 30*24*time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateToken(42)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateTokenExpired(t *testing.T) {
	svc, err := NewAuthService(testSecret, time.Hour)
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.GenerateToken(1)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer, err := NewAuthService(testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewAuthService("another-secret-0123456789", time.Hour)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(1)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	svc, err := NewAuthService(testSecret, time.Hour)
	require.NoError(t, err)

	claims := TokenClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc, err := NewAuthService(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrTokenEmpty)

	_, err = svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("battery staple", hash))
}
