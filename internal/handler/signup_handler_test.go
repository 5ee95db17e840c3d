package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type fakeSignupSrv struct {
	submitted   *dto.SubmitSignupRequest
	listStatus  models.RequestStatus
	approvedID  string
	approvedOrg *string
	rejectErr   error
	removed     string
}

func (f *fakeSignupSrv) Submit(_ context.Context, _ models.Actor, req dto.SubmitSignupRequest) (*models.SignupRequest, error) {
	f.submitted = &req
	return &models.SignupRequest{ID: "r1", Email: req.Email, Status: models.RequestPending}, nil
}

func (f *fakeSignupSrv) List(_ context.Context, _ models.Actor, status models.RequestStatus) ([]models.SignupRequest, error) {
	f.listStatus = status
	return []models.SignupRequest{}, nil
}

func (f *fakeSignupSrv) ListOrganizations(context.Context, models.Actor) ([]models.Organization, error) {
	return []models.Organization{{ID: "o1", Name: "Escuela"}}, nil
}

func (f *fakeSignupSrv) Approve(_ context.Context, _ models.Actor, id string, org *string) (*dto.ApproveSignupResult, error) {
	f.approvedID = id
	f.approvedOrg = org
	return &dto.ApproveSignupResult{Request: models.SignupRequest{ID: id}, OrgID: "o1"}, nil
}

func (f *fakeSignupSrv) Reject(context.Context, models.Actor, string) error {
	return f.rejectErr
}

func (f *fakeSignupSrv) Remove(_ context.Context, _ models.Actor, id string) error {
	f.removed = id
	return nil
}

func (f *fakeSignupSrv) ExportCSV(context.Context, models.Actor, models.RequestStatus) ([]byte, error) {
	return []byte("\ufeffemail\n"), nil
}

func TestSignupHandlerSubmit(t *testing.T) {
	srv := &fakeSignupSrv{}
	h := NewSignupHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/signup-requests", jsonBody(t, map[string]interface{}{
		"email":          "ana@example.com",
		"requested_role": "teacher",
		"org_name":       "Escuela Norte",
	}))
	h.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.submitted)
	assert.Equal(t, models.RoleTeacher, srv.submitted.RequestedRole)
	require.NotNil(t, srv.submitted.OrgName)
	assert.Equal(t, "Escuela Norte", *srv.submitted.OrgName)
}

func TestSignupHandlerListStatusFilter(t *testing.T) {
	srv := &fakeSignupSrv{}
	h := NewSignupHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/admin/signup-requests?status=pending", nil)
	h.List(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RequestPending, srv.listStatus)

	c, rec = newTestContext(http.MethodGet, "/admin/signup-requests?status=bogus", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupHandlerApproveWithAndWithoutBody(t *testing.T) {
	srv := &fakeSignupSrv{}
	h := NewSignupHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/admin/signup-requests/r1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Approve(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", srv.approvedID)
	assert.Nil(t, srv.approvedOrg)

	org := "1c7a7c0e-7d2f-4c55-9f43-0d1d1c9f5a11"
	c, rec = newTestContext(http.MethodPost, "/admin/signup-requests/r2/approve", jsonBody(t, map[string]string{"org_id": org}))
	c.Params = gin.Params{{Key: "id", Value: "r2"}}
	h.Approve(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.approvedOrg)
	assert.Equal(t, org, *srv.approvedOrg)
}

func TestSignupHandlerRejectConflict(t *testing.T) {
	h := NewSignupHandler(&fakeSignupSrv{rejectErr: appErrors.Clone(appErrors.ErrConflict, "request already handled")})
	c, rec := newTestContext(http.MethodPost, "/admin/signup-requests/r1/reject", nil)
	h.Reject(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupHandlerRemoveAndExport(t *testing.T) {
	srv := &fakeSignupSrv{}
	h := NewSignupHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/admin/signup-requests/r9", nil)
	c.Params = gin.Params{{Key: "id", Value: "r9"}}
	h.Remove(c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r9", srv.removed)

	c, rec = newTestContext(http.MethodGet, "/admin/signup-requests/export.csv", nil)
	h.ExportCSV(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "signup-requests.csv")
}

func TestSignupHandlerOrganizations(t *testing.T) {
	h := NewSignupHandler(&fakeSignupSrv{})
	c, rec := newTestContext(http.MethodGet, "/admin/organizations", nil)
	h.Organizations(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "Escuela")
}
