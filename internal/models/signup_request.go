package models

import "time"

// RequestStatus is the state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// SignupRequest asks an administrator for a role inside an organization. OrgID selects an existing
// organization; OrgName proposes a new one. At most one of them is set.
type SignupRequest struct {
	ID            string        `db:"id" json:"id"`
	UserID        *string       `db:"user_id" json:"user_id,omitempty"`
	Email         string        `db:"email" json:"email"`
	RequestedRole Role          `db:"requested_role" json:"requested_role"`
	OrgID         *string       `db:"org_id" json:"org_id"`
	OrgName       *string       `db:"org_name" json:"org_name"`
	Notes         string        `db:"notes" json:"notes"`
	Status        RequestStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// SignupRequestFilter narrows request listings.
type SignupRequestFilter struct {
	Status RequestStatus
	OrgID  *string
}
