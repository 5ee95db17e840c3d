package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/models"
)

type fakeLandingSrv struct {
	err error
}

func (f *fakeLandingSrv) Load(_ context.Context, actor models.Actor) (*models.Landing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Landing{
		Public:      []models.ActivitySummary{},
		Org:         []models.ActivitySummary{},
		Marketplace: []models.ActivitySummary{},
		ShowOrg:     actor.Authenticated(),
	}, nil
}

func TestLandingHandlerShowsOrgOnlyWhenSignedIn(t *testing.T) {
	h := NewLandingHandler(&fakeLandingSrv{})

	c, rec := newTestContext(http.MethodGet, "/landing", nil)
	h.Landing(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var landing models.Landing
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &landing))
	assert.False(t, landing.ShowOrg)

	c, rec = newTestContext(http.MethodGet, "/landing", nil)
	withActor(c, approvedTeacher())
	h.Landing(c)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &landing))
	assert.True(t, landing.ShowOrg)
}

func TestLandingHandlerError(t *testing.T) {
	h := NewLandingHandler(&fakeLandingSrv{err: errors.New("boom")})
	c, rec := newTestContext(http.MethodGet, "/landing", nil)
	h.Landing(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMeReportsCapabilities(t *testing.T) {
	h := NewLandingHandler(&fakeLandingSrv{})
	c, rec := newTestContext(http.MethodGet, "/me", nil)
	withActor(c, approvedTeacher())
	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var me dto.MeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &me))
	require.NotNil(t, me.Session)
	assert.Equal(t, "u1", me.Session.UserID)
	assert.True(t, me.Capabilities.CanCreate)
	assert.False(t, me.Capabilities.Admin)
}
