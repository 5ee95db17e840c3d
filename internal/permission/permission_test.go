package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ingenia-api/internal/models"
)

func TestPredicatesAreNilSafe(t *testing.T) {
	assert.False(t, IsApproved(nil))
	assert.False(t, IsTeacherLike(nil))
	assert.False(t, CanCreate(nil, nil))
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsPlatformAdmin(nil))
}

func TestCanCreate(t *testing.T) {
	session := &models.Session{UserID: "u1"}
	cases := []struct {
		name    string
		session *models.Session
		profile *models.Profile
		want    bool
	}{
		{"approved teacher", session, &models.Profile{Role: models.RoleTeacher, Approved: true}, true},
		{"approved org admin", session, &models.Profile{Role: models.RoleOrgAdmin, Approved: true}, true},
		{"unapproved teacher", session, &models.Profile{Role: models.RoleTeacher}, false},
		{"approved student", session, &models.Profile{Role: models.RoleStudent, Approved: true}, false},
		{"no session", nil, &models.Profile{Role: models.RolePlatformAdmin, Approved: true}, false},
		{"pending", session, &models.Profile{Role: models.RolePending}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanCreate(tc.session, tc.profile))
		})
	}
}

func TestAdminPredicates(t *testing.T) {
	orgAdmin := &models.Profile{Role: models.RoleOrgAdmin}
	platform := &models.Profile{Role: models.RolePlatformAdmin}
	teacher := &models.Profile{Role: models.RoleTeacher}

	assert.True(t, IsAdmin(orgAdmin))
	assert.True(t, IsAdmin(platform))
	assert.False(t, IsAdmin(teacher))
	assert.True(t, IsPlatformAdmin(platform))
	assert.False(t, IsPlatformAdmin(orgAdmin))

	caps := Evaluate(&models.Session{UserID: "u"}, &models.Profile{Role: models.RolePlatformAdmin, Approved: true})
	assert.Equal(t, Capabilities{Approved: true, TeacherLike: true, CanCreate: true, Admin: true, PlatformAdmin: true}, caps)
}
