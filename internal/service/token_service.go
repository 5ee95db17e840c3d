package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/pkg/config"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

// AccessClaims is the payload of an identity provider access token.
type AccessClaims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// TokenService validates identity provider access tokens into sessions.
type TokenService struct {
	config config.AuthConfig
	now    func() time.Time
}

// NewTokenService builds a validator for the configured secret, issuer and audience.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

// Validate parses the token and returns the session it asserts.
func (s *TokenService) Validate(tokenString string) (*models.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	session := &models.Session{
		UserID:      claims.Subject,
		Email:       strings.TrimSpace(claims.Email),
		DisplayName: displayNameFrom(claims.UserMetadata),
		AccessToken: tokenString,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Issue signs a token for s. It backs the command line login and tests; production tokens come
// from the identity provider.
func (s *TokenService) Issue(session models.Session, ttl time.Duration) (string, error) {
	issuedAt := s.now().UTC()
	claims := &AccessClaims{
		Email: session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}
	if session.DisplayName != "" {
		claims.UserMetadata = map[string]interface{}{"name": session.DisplayName}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func displayNameFrom(meta map[string]interface{}) string {
	for _, key := range []string{"name", "full_name"} {
		if v, ok := meta[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
