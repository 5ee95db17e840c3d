package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/draft"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/progress"
	"github.com/noah-isme/ingenia-api/internal/service"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

const maxImportBytes = 2 << 20

type stateService interface {
	Draft(ctx context.Context, actor models.Actor) (draft.State, error)
	DispatchDraft(ctx context.Context, actor models.Actor, ev draft.Event) (draft.State, error)
	ResetDraft(ctx context.Context, actor models.Actor) (draft.State, error)
	SaveDraft(ctx context.Context, actor models.Actor) (*service.DraftSaveResult, error)
	PublishDraft(ctx context.Context, actor models.Actor) (*service.DraftSaveResult, error)
	ImportDraft(ctx context.Context, actor models.Actor, data []byte) (draft.State, error)
	ExportDraft(ctx context.Context, actor models.Actor) (*service.ExportResult, error)
	Progress(ctx context.Context, actor models.Actor, activityID string) (*service.ProgressView, error)
	DispatchProgress(ctx context.Context, actor models.Actor, activityID string, ev progress.Event) (*service.ProgressView, error)
}

// StateHandler exposes the caller's server-side draft and player progress.
type StateHandler struct {
	state stateService
}

// NewStateHandler constructs the handler.
func NewStateHandler(state stateService) *StateHandler {
	return &StateHandler{state: state}
}

// Draft godoc
// @Summary Current authoring draft
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/draft [get]
func (h *StateHandler) Draft(c *gin.Context) {
	h.respondDraft(c)(h.state.Draft(c.Request.Context(), actorFromContext(c)))
}

// DispatchDraft godoc
// @Summary Apply one draft edit
// @Tags State
// @Accept json
// @Produce json
// @Param payload body draft.Event true "Event"
// @Success 200 {object} response.Envelope
// @Router /state/draft/events [post]
func (h *StateHandler) DispatchDraft(c *gin.Context) {
	var ev draft.Event
	if !bindJSON(c, &ev) {
		return
	}
	h.respondDraft(c)(h.state.DispatchDraft(c.Request.Context(), actorFromContext(c), ev))
}

// ImportDraft godoc
// @Summary Replace the draft with an exported document
// @Tags State
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/draft [put]
func (h *StateHandler) ImportDraft(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "body could not be read"))
		return
	}
	h.respondDraft(c)(h.state.ImportDraft(c.Request.Context(), actorFromContext(c), data))
}

// ResetDraft godoc
// @Summary Discard the draft
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/draft [delete]
func (h *StateHandler) ResetDraft(c *gin.Context) {
	h.respondDraft(c)(h.state.ResetDraft(c.Request.Context(), actorFromContext(c)))
}

// SaveDraft godoc
// @Summary Save the draft to the record store
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/draft/save [post]
func (h *StateHandler) SaveDraft(c *gin.Context) {
	res, err := h.state.SaveDraft(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// PublishDraft godoc
// @Summary Save and publish the draft
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/draft/publish [post]
func (h *StateHandler) PublishDraft(c *gin.Context) {
	res, err := h.state.PublishDraft(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ExportDraft godoc
// @Summary Download the draft as interchange JSON
// @Tags State
// @Produce json
// @Success 200 {file} file
// @Router /state/draft/export.json [get]
func (h *StateHandler) ExportDraft(c *gin.Context) {
	res, err := h.state.ExportDraft(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, res.Filename, res.ContentType, res.Payload)
}

// Progress godoc
// @Summary Player progress in an activity
// @Tags State
// @Produce json
// @Param activityId path string true "Activity ID or seed reference"
// @Success 200 {object} response.Envelope
// @Router /state/progress/{activityId} [get]
func (h *StateHandler) Progress(c *gin.Context) {
	view, err := h.state.Progress(c.Request.Context(), actorFromContext(c), c.Param("activityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// DispatchProgress godoc
// @Summary Apply one player event
// @Tags State
// @Accept json
// @Produce json
// @Param activityId path string true "Activity ID or seed reference"
// @Param payload body progress.Event true "Event"
// @Success 200 {object} response.Envelope
// @Router /state/progress/{activityId}/events [post]
func (h *StateHandler) DispatchProgress(c *gin.Context) {
	var ev progress.Event
	if !bindJSON(c, &ev) {
		return
	}
	view, err := h.state.DispatchProgress(c.Request.Context(), actorFromContext(c), c.Param("activityId"), ev)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

func (h *StateHandler) respondDraft(c *gin.Context) func(draft.State, error) {
	return func(state draft.State, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, state)
	}
}
