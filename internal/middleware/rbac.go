package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/permission"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

// Require enforces a capability predicate on the current actor. Anonymous callers get
// AUTH_REQUIRED, authenticated callers that fail the predicate get FORBIDDEN.
func Require(allowed func(models.Actor) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.Authenticated() {
			response.Error(c, appErrors.ErrAuthRequired)
			c.Abort()
			return
		}
		if !allowed(actor) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCreate admits approved teacher-like profiles.
func RequireCreate() gin.HandlerFunc {
	return Require(func(a models.Actor) bool { return permission.CanCreate(a.Session, a.Profile) })
}

// RequireAdmin admits organization and platform administrators.
func RequireAdmin() gin.HandlerFunc {
	return Require(func(a models.Actor) bool { return permission.IsAdmin(a.Profile) })
}
