package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/pkg/config"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.AuthConfig{JWTSecret: "secret", Issuer: "ingenia", Audience: "authenticated"})
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	token, err := svc.Issue(models.Session{UserID: "u1", Email: "ana@example.com", DisplayName: "Ana"}, time.Hour)
	require.NoError(t, err)

	session, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "ana@example.com", session.Email)
	assert.Equal(t, "Ana", session.DisplayName)
	assert.Equal(t, token, session.AccessToken)
	assert.False(t, session.ExpiresAt.IsZero())
}

func TestTokenServiceRejects(t *testing.T) {
	svc := newTestTokenService()

	expired, err := svc.Issue(models.Session{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Validate(expired)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	other := NewTokenService(config.AuthConfig{JWTSecret: "other", Issuer: "ingenia", Audience: "authenticated"})
	forged, err := other.Issue(models.Session{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(forged)
	assert.Error(t, err)

	wrongAudience := NewTokenService(config.AuthConfig{JWTSecret: "secret", Issuer: "ingenia", Audience: "anon"})
	token, err := wrongAudience.Issue(models.Session{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.Error(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "ingenia",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := noSubject.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	assert.Error(t, err)

	_, err = svc.Validate("not-a-token")
	assert.Error(t, err)
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Ana", displayNameFrom(map[string]interface{}{"full_name": " Ana "}))
	assert.Equal(t, "", displayNameFrom(nil))
	assert.Equal(t, "", displayNameFrom(map[string]interface{}{"name": 42}))
}
