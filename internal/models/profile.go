package models

import "time"

// Role is the application role granted to a profile.
type Role string

const (
	RolePending       Role = "pending"
	RoleStudent       Role = "student"
	RoleTeacher       Role = "teacher"
	RoleOrgAdmin      Role = "org_admin"
	RolePlatformAdmin Role = "platform_admin"
)

// Profile is the application identity bound to an authenticated user.
type Profile struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       string    `db:"email" json:"email"`
	Role        Role      `db:"role" json:"role"`
	OrgID       *string   `db:"org_id" json:"org_id"`
	Approved    bool      `db:"approved" json:"approved"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProfilePatch carries the fields a backfill may fill in. Nil fields are left untouched.
type ProfilePatch struct {
	Email       *string
	DisplayName *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Email == nil && p.DisplayName == nil
}

// Organization is a school or institution.
type Organization struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session is an authenticated identity as asserted by the identity provider's access token.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessToken string    `json:"-"`
}

// Key identifies the session for change detection; an absent session is "anon".
func (s *Session) Key() string {
	if s == nil || s.UserID == "" {
		return "anon"
	}
	return s.UserID
}

// BestDisplayName prefers the provider supplied name and falls back to the email.
func (s *Session) BestDisplayName() string {
	if s == nil {
		return ""
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}

// Actor is the caller of a record-store operation. A nil Session means anonymous.
type Actor struct {
	Session *Session
	Profile *Profile
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.Session != nil && a.Session.UserID != ""
}

// UserID returns the identity id or an empty string.
func (a Actor) UserID() string {
	if a.Session == nil {
		return ""
	}
	return a.Session.UserID
}

// OrgID returns the organization of the actor's profile.
func (a Actor) OrgID() *string {
	if a.Profile == nil {
		return nil
	}
	return a.Profile.OrgID
}
