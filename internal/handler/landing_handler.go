package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/permission"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

type landingService interface {
	Load(ctx context.Context, actor models.Actor) (*models.Landing, error)
}

// LandingHandler serves the home aggregate and the caller's identity.
type LandingHandler struct {
	landing landingService
}

// NewLandingHandler constructs the handler.
func NewLandingHandler(landing landingService) *LandingHandler {
	return &LandingHandler{landing: landing}
}

// Landing godoc
// @Summary Home page listings
// @Description Public and marketplace listings, plus the organization listing for signed-in callers.
// @Tags Landing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /landing [get]
func (h *LandingHandler) Landing(c *gin.Context) {
	landing, err := h.landing.Load(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, landing)
}

// Me godoc
// @Summary Current session, profile and capabilities
// @Tags Identity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *LandingHandler) Me(c *gin.Context) {
	actor := actorFromContext(c)
	response.JSON(c, http.StatusOK, dto.MeResponse{
		Session:      actor.Session,
		Profile:      actor.Profile,
		Capabilities: permission.Evaluate(actor.Session, actor.Profile),
	})
}
