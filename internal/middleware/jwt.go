package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/logger"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

// ContextActorKey is the gin context key storing the resolved models.Actor.
const ContextActorKey = "currentActor"

type tokenValidator interface {
	Validate(token string) (*models.Session, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, session models.Session) (*models.Profile, error)
}

// Authenticator turns bearer tokens into actors.
type Authenticator struct {
	tokens   tokenValidator
	profiles profileResolver
	logger   *zap.Logger
}

// NewAuthenticator constructs the middleware factory.
func NewAuthenticator(tokens tokenValidator, profiles profileResolver, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, profiles: profiles, logger: logger}
}

// JWT protects routes by requiring a valid access token.
func (a *Authenticator) JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrAuthRequired)
			c.Abort()
			return
		}

		token, ok := bearer(header)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		session, err := a.tokens.Validate(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActorKey, a.actor(c, session, token))
		c.Next()
	}
}

// OptionalJWT attaches the actor when a valid token is present but does not block.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		session, err := a.tokens.Validate(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextActorKey, a.actor(c, session, token))
		c.Next()
	}
}

// actor resolves the profile for the session. A failed lookup leaves the profile unset so
// capability checks fail closed while the identity stays known.
func (a *Authenticator) actor(c *gin.Context, session *models.Session, token string) models.Actor {
	session.AccessToken = token
	actor := models.Actor{Session: session}
	if a.profiles == nil {
		return actor
	}
	profile, err := a.profiles.Resolve(c.Request.Context(), *session)
	if err != nil {
		logger.FromContext(c.Request.Context(), a.logger).Warn("profile resolution failed", zap.String("user_id", session.UserID), zap.Error(err))
		return actor
	}
	actor.Profile = profile
	return actor
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// ActorFrom returns the actor attached by JWT or OptionalJWT, or an anonymous actor.
func ActorFrom(c *gin.Context) models.Actor {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return models.Actor{}
	}
	actor, ok := value.(models.Actor)
	if !ok {
		return models.Actor{}
	}
	return actor
}
