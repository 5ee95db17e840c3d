// Package permission holds the capability predicates over a session and its profile.
//
// They gate what the API offers a caller. The record store applies its own row policies, so a
// predicate passing is never the only check standing between a caller and a row.
package permission

import "github.com/noah-isme/ingenia-api/internal/models"

// IsApproved reports whether the profile has been approved by an administrator.
func IsApproved(p *models.Profile) bool {
	return p != nil && p.Approved
}

// IsTeacherLike reports whether the role may author activities.
func IsTeacherLike(p *models.Profile) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case models.RoleTeacher, models.RoleOrgAdmin, models.RolePlatformAdmin:
		return true
	}
	return false
}

// CanCreate reports whether the caller may create and publish activities.
func CanCreate(s *models.Session, p *models.Profile) bool {
	return s != nil && IsApproved(p) && IsTeacherLike(p)
}

// IsAdmin reports whether the role administers an organization or the platform.
func IsAdmin(p *models.Profile) bool {
	return p != nil && (p.Role == models.RoleOrgAdmin || p.Role == models.RolePlatformAdmin)
}

// IsPlatformAdmin reports whether the role administers the whole platform.
func IsPlatformAdmin(p *models.Profile) bool {
	return p != nil && p.Role == models.RolePlatformAdmin
}

// Capabilities is the evaluated predicate set for one caller.
type Capabilities struct {
	Approved      bool `json:"approved"`
	TeacherLike   bool `json:"teacher_like"`
	CanCreate     bool `json:"can_create"`
	Admin         bool `json:"admin"`
	PlatformAdmin bool `json:"platform_admin"`
}

// Evaluate computes every predicate for the caller.
func Evaluate(s *models.Session, p *models.Profile) Capabilities {
	return Capabilities{
		Approved:      IsApproved(p),
		TeacherLike:   IsTeacherLike(p),
		CanCreate:     CanCreate(s, p),
		Admin:         IsAdmin(p),
		PlatformAdmin: IsPlatformAdmin(p),
	}
}
