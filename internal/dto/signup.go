package dto

import "github.com/noah-isme/ingenia-api/internal/models"

// SubmitSignupRequest is the payload of an access request. OrgID selects an existing organization
// and takes precedence over OrgName.
type SubmitSignupRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	RequestedRole models.Role `json:"requested_role" validate:"required,oneof=student teacher org_admin"`
	OrgID         *string     `json:"org_id" validate:"omitempty,uuid"`
	OrgName       *string     `json:"org_name" validate:"omitempty,max=200"`
	Notes         string      `json:"notes" validate:"max=2000"`
}

// ApproveSignupRequest optionally picks the organization to approve into.
type ApproveSignupRequest struct {
	OrgID *string `json:"org_id" validate:"omitempty,uuid"`
}

// SignupRequestQuery filters the admin listing.
type SignupRequestQuery struct {
	Status models.RequestStatus `form:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// ApproveSignupResult reports where an approved request landed.
type ApproveSignupResult struct {
	Request models.SignupRequest `json:"request"`
	OrgID   string               `json:"org_id"`
}
