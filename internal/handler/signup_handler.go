package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/response"
)

type signupService interface {
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitSignupRequest) (*models.SignupRequest, error)
	List(ctx context.Context, actor models.Actor, status models.RequestStatus) ([]models.SignupRequest, error)
	ListOrganizations(ctx context.Context, actor models.Actor) ([]models.Organization, error)
	Approve(ctx context.Context, actor models.Actor, id string, chosenOrgID *string) (*dto.ApproveSignupResult, error)
	Reject(ctx context.Context, actor models.Actor, id string) error
	Remove(ctx context.Context, actor models.Actor, id string) error
	ExportCSV(ctx context.Context, actor models.Actor, status models.RequestStatus) ([]byte, error)
}

// SignupHandler exposes access requests and their administration.
type SignupHandler struct {
	signups signupService
}

// NewSignupHandler constructs the handler.
func NewSignupHandler(signups signupService) *SignupHandler {
	return &SignupHandler{signups: signups}
}

// Submit godoc
// @Summary Request access with a role and organization
// @Tags Signup
// @Accept json
// @Produce json
// @Param payload body dto.SubmitSignupRequest true "Request"
// @Success 201 {object} response.Envelope
// @Router /signup-requests [post]
func (h *SignupHandler) Submit(c *gin.Context) {
	var req dto.SubmitSignupRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.signups.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary Access requests visible to the administrator
// @Tags Admin
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /admin/signup-requests [get]
func (h *SignupHandler) List(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	items, err := h.signups.List(c.Request.Context(), actorFromContext(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ExportCSV godoc
// @Summary Download access requests as CSV
// @Tags Admin
// @Produce text/csv
// @Param status query string false "pending, approved or rejected"
// @Success 200 {file} file
// @Router /admin/signup-requests/export.csv [get]
func (h *SignupHandler) ExportCSV(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	payload, err := h.signups.ExportCSV(c.Request.Context(), actorFromContext(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendExport(c, "signup-requests.csv", "text/csv; charset=utf-8", payload)
}

// Approve godoc
// @Summary Approve an access request
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveSignupRequest false "Organization"
// @Success 200 {object} response.Envelope
// @Router /admin/signup-requests/{id}/approve [post]
func (h *SignupHandler) Approve(c *gin.Context) {
	var req dto.ApproveSignupRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.signups.Approve(c.Request.Context(), actorFromContext(c), c.Param("id"), req.OrgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Reject godoc
// @Summary Reject an access request
// @Tags Admin
// @Param id path string true "Request ID"
// @Success 204
// @Router /admin/signup-requests/{id}/reject [post]
func (h *SignupHandler) Reject(c *gin.Context) {
	if err := h.signups.Reject(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Delete an access request
// @Tags Admin
// @Param id path string true "Request ID"
// @Success 204
// @Router /admin/signup-requests/{id} [delete]
func (h *SignupHandler) Remove(c *gin.Context) {
	if err := h.signups.Remove(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Organizations godoc
// @Summary Organizations the administrator can approve into
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/organizations [get]
func (h *SignupHandler) Organizations(c *gin.Context) {
	orgs, err := h.signups.ListOrganizations(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orgs)
}

func statusQuery(c *gin.Context) (models.RequestStatus, bool) {
	var q dto.SignupRequestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return "", false
	}
	switch q.Status {
	case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
		return q.Status, true
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
	return "", false
}
