package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type profileRepoMock struct {
	profiles  map[string]*models.Profile
	patches   []models.ProfilePatch
	approvals []string
	findErr   error
	createErr error
	block     bool
}

func newProfileRepoMock() *profileRepoMock {
	return &profileRepoMock{profiles: map[string]*models.Profile{}}
}

func (m *profileRepoMock) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *profileRepoMock) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *profileRepoMock) Patch(_ context.Context, id string, patch models.ProfilePatch) error {
	m.patches = append(m.patches, patch)
	p := m.profiles[id]
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	return nil
}

func (m *profileRepoMock) CreatePending(_ context.Context, id, email, displayName string) (*models.Profile, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	p := &models.Profile{ID: id, Email: email, DisplayName: displayName, Role: models.RolePending}
	m.profiles[id] = p
	clone := *p
	return &clone, nil
}

func (m *profileRepoMock) ApproveByEmail(_ context.Context, email string, role models.Role, orgID string) error {
	m.approvals = append(m.approvals, email+"|"+string(role)+"|"+orgID)
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			p.Role = role
			p.Approved = true
			org := orgID
			p.OrgID = &org
		}
	}
	return nil
}

func TestProfileResolveReturnsCompleteProfileAsIs(t *testing.T) {
	repo := newProfileRepoMock()
	repo.profiles["u1"] = &models.Profile{ID: "u1", Email: "ana@example.com", DisplayName: "Ana", Role: models.RoleTeacher}
	svc := NewProfileService(repo, nil, nil, time.Second)

	p, err := svc.Resolve(context.Background(), models.Session{UserID: "u1", Email: "other@example.com", DisplayName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.DisplayName)
	assert.Empty(t, repo.patches)
}

func TestProfileResolveBackfillsOnlyMissingFields(t *testing.T) {
	repo := newProfileRepoMock()
	repo.profiles["u1"] = &models.Profile{ID: "u1", Email: "", DisplayName: "Ana", Role: models.RoleTeacher}
	svc := NewProfileService(repo, nil, nil, time.Second)

	p, err := svc.Resolve(context.Background(), models.Session{UserID: "u1", Email: "ana@example.com", DisplayName: "Ana Two"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "Ana", p.DisplayName)
	require.Len(t, repo.patches, 1)
	assert.Nil(t, repo.patches[0].DisplayName)
}

func TestProfileResolveSkipsBackfillWithoutEmail(t *testing.T) {
	repo := newProfileRepoMock()
	repo.profiles["u1"] = &models.Profile{ID: "u1"}
	svc := NewProfileService(repo, nil, nil, time.Second)

	_, err := svc.Resolve(context.Background(), models.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, repo.patches)
}

func TestProfileResolveCreatesPending(t *testing.T) {
	repo := newProfileRepoMock()
	svc := NewProfileService(repo, nil, nil, time.Second)

	p, err := svc.Resolve(context.Background(), models.Session{UserID: "u2", Email: "bo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePending, p.Role)
	assert.False(t, p.Approved)
	assert.Equal(t, "bo@example.com", p.DisplayName)
}

func TestProfileResolveFailures(t *testing.T) {
	repo := newProfileRepoMock()
	repo.createErr = errors.New("insert failed")
	svc := NewProfileService(repo, nil, nil, time.Second)
	_, err := svc.Resolve(context.Background(), models.Session{UserID: "u3"})
	assert.True(t, errors.Is(err, appErrors.ErrRemote))

	repo = newProfileRepoMock()
	repo.block = true
	svc = NewProfileService(repo, nil, nil, 10*time.Millisecond)
	_, err = svc.Resolve(context.Background(), models.Session{UserID: "u3"})
	assert.True(t, appErrors.IsTimeout(err))
}

func TestProfileGet(t *testing.T) {
	repo := newProfileRepoMock()
	svc := NewProfileService(repo, nil, nil, 0)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
