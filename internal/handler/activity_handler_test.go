package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/service"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type fakeActivitySrv struct {
	created     *models.Activity
	createErr   error
	lastActor   models.Actor
	lastPublish struct {
		id         string
		visibility models.Visibility
		status     *models.ListingStatus
	}
	publicItems []models.ActivitySummary
}

func (f *fakeActivitySrv) Create(_ context.Context, actor models.Actor, act models.Activity) (*models.Activity, error) {
	f.lastActor = actor
	if f.createErr != nil {
		return nil, f.createErr
	}
	act.ID = "act-1"
	f.created = &act
	return &act, nil
}

func (f *fakeActivitySrv) Update(_ context.Context, _ models.Actor, id string, act models.Activity) (*models.Activity, error) {
	act.ID = id
	return &act, nil
}

func (f *fakeActivitySrv) Publish(_ context.Context, _ models.Actor, id string, visibility models.Visibility, status *models.ListingStatus) error {
	f.lastPublish.id = id
	f.lastPublish.visibility = visibility
	f.lastPublish.status = status
	return nil
}

func (f *fakeActivitySrv) ListPublic(context.Context) ([]models.ActivitySummary, error) {
	return f.publicItems, nil
}

func (f *fakeActivitySrv) ListMarketplace(context.Context) ([]models.ActivitySummary, error) {
	return []models.ActivitySummary{}, nil
}

func (f *fakeActivitySrv) ListForOrg(_ context.Context, actor models.Actor) ([]models.ActivitySummary, error) {
	f.lastActor = actor
	return []models.ActivitySummary{}, nil
}

type fakeExportSrv struct {
	activity *models.Activity
	err      error
}

func (f *fakeExportSrv) Resolve(context.Context, string) (*models.Activity, error) {
	return f.activity, f.err
}

func (f *fakeExportSrv) ExportJSON(context.Context, string) (*service.ExportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportResult{Filename: "Puentes.json", ContentType: "application/json", Payload: []byte(`{"id":"a"}`)}, nil
}

func (f *fakeExportSrv) ExportPDF(context.Context, string) (*service.ExportResult, error) {
	return &service.ExportResult{Filename: "Puentes.pdf", ContentType: "application/pdf", Payload: []byte("%PDF-1.3")}, nil
}

func TestActivityHandlerCreatePassesActor(t *testing.T) {
	srv := &fakeActivitySrv{}
	h := NewActivityHandler(srv, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodPost, "/activities", jsonBody(t, map[string]interface{}{"title": "Puentes"}))
	withActor(c, approvedTeacher())
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", srv.lastActor.UserID())
	require.NotNil(t, srv.created)
	assert.Equal(t, "Puentes", srv.created.Title)
}

func TestActivityHandlerCreateRejectsBadJSON(t *testing.T) {
	h := NewActivityHandler(&fakeActivitySrv{}, &fakeExportSrv{})
	c, rec := newTestContext(http.MethodPost, "/activities", strings.NewReader("{"))
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestActivityHandlerCreateMapsServiceError(t *testing.T) {
	srv := &fakeActivitySrv{createErr: appErrors.Clone(appErrors.ErrForbidden, "no")}
	h := NewActivityHandler(srv, &fakeExportSrv{})
	c, rec := newTestContext(http.MethodPost, "/activities", jsonBody(t, map[string]interface{}{"title": "x"}))
	h.Create(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActivityHandlerPublish(t *testing.T) {
	srv := &fakeActivitySrv{}
	h := NewActivityHandler(srv, &fakeExportSrv{})
	c, rec := newTestContext(http.MethodPost, "/activities/a1/publish", jsonBody(t, map[string]interface{}{
		"visibility":     "market",
		"listing_status": "active",
	}))
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	h.Publish(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a1", srv.lastPublish.id)
	assert.Equal(t, models.VisibilityMarket, srv.lastPublish.visibility)
	require.NotNil(t, srv.lastPublish.status)
	assert.Equal(t, models.ListingActive, *srv.lastPublish.status)
}

func TestActivityHandlerListPublic(t *testing.T) {
	srv := &fakeActivitySrv{publicItems: []models.ActivitySummary{{ID: "p1", Title: "Puentes"}}}
	h := NewActivityHandler(srv, &fakeExportSrv{})
	c, rec := newTestContext(http.MethodGet, "/activities/public", nil)
	h.ListPublic(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.ActivitySummary
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
}

func TestActivityHandlerListOrgAnonymous(t *testing.T) {
	srv := &fakeActivitySrv{}
	h := NewActivityHandler(srv, &fakeExportSrv{})
	c, rec := newTestContext(http.MethodGet, "/activities/org", nil)
	h.ListOrg(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, srv.lastActor.Authenticated())
}

func TestActivityHandlerGetNotFound(t *testing.T) {
	h := NewActivityHandler(&fakeActivitySrv{}, &fakeExportSrv{err: appErrors.Clone(appErrors.ErrNotFound, "activity not found")})
	c, rec := newTestContext(http.MethodGet, "/activities/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivityHandlerExportDownloads(t *testing.T) {
	h := NewActivityHandler(&fakeActivitySrv{}, &fakeExportSrv{})

	c, rec := newTestContext(http.MethodGet, "/activities/a/export.json", nil)
	h.ExportJSON(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="Puentes.json"`)
	assert.Equal(t, `{"id":"a"}`, rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/activities/a/export.pdf", nil)
	h.ExportPDF(c)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
