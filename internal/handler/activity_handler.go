package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/service"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

type activityService interface {
	Create(ctx context.Context, actor models.Actor, activity models.Activity) (*models.Activity, error)
	Update(ctx context.Context, actor models.Actor, id string, activity models.Activity) (*models.Activity, error)
	Publish(ctx context.Context, actor models.Actor, id string, visibility models.Visibility, status *models.ListingStatus) error
	ListPublic(ctx context.Context) ([]models.ActivitySummary, error)
	ListMarketplace(ctx context.Context) ([]models.ActivitySummary, error)
	ListForOrg(ctx context.Context, actor models.Actor) ([]models.ActivitySummary, error)
}

type exportService interface {
	Resolve(ctx context.Context, id string) (*models.Activity, error)
	ExportJSON(ctx context.Context, id string) (*service.ExportResult, error)
	ExportPDF(ctx context.Context, id string) (*service.ExportResult, error)
}

// ActivityHandler exposes the activity record store.
type ActivityHandler struct {
	activities activityService
	exports    exportService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(activities activityService, exports exportService) *ActivityHandler {
	return &ActivityHandler{activities: activities, exports: exports}
}

// ListPublic godoc
// @Summary Public activities
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activities/public [get]
func (h *ActivityHandler) ListPublic(c *gin.Context) {
	items, err := h.activities.ListPublic(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListOrg godoc
// @Summary Activities of the caller's organization
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activities/org [get]
func (h *ActivityHandler) ListOrg(c *gin.Context) {
	items, err := h.activities.ListForOrg(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListMarketplace godoc
// @Summary Active marketplace listings
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activities/marketplace [get]
func (h *ActivityHandler) ListMarketplace(c *gin.Context) {
	items, err := h.activities.ListMarketplace(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Activity with ordered sections
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID or seed reference"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	act, err := h.exports.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, act)
}

// Create godoc
// @Summary Create an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body models.Activity true "Activity"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var act models.Activity
	if !bindJSON(c, &act) {
		return
	}
	created, err := h.activities.Create(c.Request.Context(), actorFromContext(c), act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body models.Activity true "Activity"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	var act models.Activity
	if !bindJSON(c, &act) {
		return
	}
	updated, err := h.activities.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), act)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Publish godoc
// @Summary Change visibility and listing status
// @Tags Activities
// @Accept json
// @Param id path string true "Activity ID"
// @Param payload body dto.PublishActivityRequest true "Target"
// @Success 204
// @Router /activities/{id}/publish [post]
func (h *ActivityHandler) Publish(c *gin.Context) {
	var req dto.PublishActivityRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.activities.Publish(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Visibility, req.ListingStatus); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportJSON godoc
// @Summary Download the activity as interchange JSON
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID or seed reference"
// @Success 200 {file} file
// @Router /activities/{id}/export.json [get]
func (h *ActivityHandler) ExportJSON(c *gin.Context) {
	res, err := h.exports.ExportJSON(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, res.Filename, res.ContentType, res.Payload)
}

// ExportPDF godoc
// @Summary Download the activity as a printable worksheet
// @Tags Activities
// @Produce application/pdf
// @Param id path string true "Activity ID or seed reference"
// @Success 200 {file} file
// @Router /activities/{id}/export.pdf [get]
func (h *ActivityHandler) ExportPDF(c *gin.Context) {
	res, err := h.exports.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, res.Filename, res.ContentType, res.Payload)
}
