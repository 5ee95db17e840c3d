package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/draft"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/export"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *activityRepoMock) {
	t.Helper()
	repo := newActivityRepoMock()
	activities := NewActivityService(repo, ActivityServiceConfig{})
	return NewExportService(activities, export.NewPDFExporter(), nil), repo
}

func TestExportJSONRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	activities := svc.activities.(*ActivityService)

	act := models.NewDraftActivity("d")
	act.Title = "Puentes de papel"
	act.Tags = []string{"ingeniería"}
	created, err := activities.Create(context.Background(), teacherActor("org-1"), act)
	require.NoError(t, err)

	res, err := svc.ExportJSON(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Puentes de papel.json", res.Filename)
	assert.Equal(t, "application/json", res.ContentType)

	decoded, err := draft.ImportJSON(res.Payload)
	require.NoError(t, err)
	assert.Equal(t, "Puentes de papel", decoded.Title)
	assert.Len(t, decoded.Sections, 5)
}

func TestExportPDFFromSeed(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	res, err := svc.ExportPDF(context.Background(), "seed:act-bridge-v1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.True(t, bytes.HasPrefix(res.Payload, []byte("%PDF")))
}

func TestExportErrors(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.ExportJSON(ctx, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.ExportPDF(ctx, "seed:unknown")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.RenderPDF(models.NewDraftActivity("d"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestWorksheetProjection(t *testing.T) {
	act := models.NewDraftActivity("d")
	act.Title = "T"
	act.Materials = []string{"papel", " ", "cinta"}
	act.Sections[0].Media = models.MediaList{{Kind: models.MediaLink, URL: "https://example.com/video"}}

	ws := Worksheet(act)
	assert.Equal(t, "• papel\n• cinta", ws.Materials)
	assert.Equal(t, 30, ws.EstMinutes)
	require.Len(t, ws.Sections, 5)
	assert.Equal(t, []string{"https://example.com/video"}, ws.Sections[0].Links)
}
