package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
)

type listerMock struct {
	mu        sync.Mutex
	publicErr error
	marketErr error
	orgCalls  int
	order     []string
}

func (m *listerMock) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, name)
}

func (m *listerMock) ListPublic(context.Context) ([]models.ActivitySummary, error) {
	m.record("public")
	if m.publicErr != nil {
		return nil, m.publicErr
	}
	return []models.ActivitySummary{{ID: "p1"}}, nil
}

func (m *listerMock) ListMarketplace(context.Context) ([]models.ActivitySummary, error) {
	m.record("market")
	if m.marketErr != nil {
		return nil, m.marketErr
	}
	return []models.ActivitySummary{{ID: "m1"}}, nil
}

func (m *listerMock) ListForOrg(context.Context, models.Actor) ([]models.ActivitySummary, error) {
	m.record("org")
	m.orgCalls++
	return []models.ActivitySummary{{ID: "o1"}}, nil
}

func TestLandingAnonymousSkipsOrg(t *testing.T) {
	lister := &listerMock{}
	landing, err := NewLandingService(lister, nil).Load(context.Background(), models.Actor{})
	require.NoError(t, err)
	assert.False(t, landing.ShowOrg)
	assert.Empty(t, landing.Org)
	assert.Len(t, landing.Public, 1)
	assert.Len(t, landing.Marketplace, 1)
	assert.Zero(t, lister.orgCalls)
}

func TestLandingOrgFetchedAfterPublicData(t *testing.T) {
	lister := &listerMock{}
	landing, err := NewLandingService(lister, nil).Load(context.Background(), teacherActor("org-1"))
	require.NoError(t, err)
	assert.True(t, landing.ShowOrg)
	assert.Len(t, landing.Org, 1)
	require.Len(t, lister.order, 3)
	assert.Equal(t, "org", lister.order[2])
}

func TestLandingCategoryFailureDegrades(t *testing.T) {
	lister := &listerMock{marketErr: errors.New("timeout")}
	landing, err := NewLandingService(lister, nil).Load(context.Background(), teacherActor("org-1"))
	require.NoError(t, err)
	assert.NotNil(t, landing.Marketplace)
	assert.Empty(t, landing.Marketplace)
	assert.Len(t, landing.Public, 1)
	assert.Len(t, landing.Org, 1)
}
