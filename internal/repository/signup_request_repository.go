package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ingenia-api/internal/models"
)

const signupRequestColumns = `id, user_id, email, requested_role, org_id, org_name, COALESCE(notes, '') AS notes, status, created_at`

// SignupRequestRepository persists access requests.
type SignupRequestRepository struct {
	db *sqlx.DB
}

// NewSignupRequestRepository constructs the repository.
func NewSignupRequestRepository(db *sqlx.DB) *SignupRequestRepository {
	return &SignupRequestRepository{db: db}
}

// FindPendingByEmail returns the pending request for an email, compared case-insensitively.
func (r *SignupRequestRepository) FindPendingByEmail(ctx context.Context, email string) (*models.SignupRequest, error) {
	query := `SELECT ` + signupRequestColumns + ` FROM signup_requests WHERE LOWER(email) = LOWER($1) AND status = 'pending' LIMIT 1`
	var req models.SignupRequest
	if err := r.db.GetContext(ctx, &req, query, strings.TrimSpace(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending signup request: %w", err)
	}
	return &req, nil
}

// FindByID returns a request by identifier.
func (r *SignupRequestRepository) FindByID(ctx context.Context, id string) (*models.SignupRequest, error) {
	query := `SELECT ` + signupRequestColumns + ` FROM signup_requests WHERE id = $1 LIMIT 1`
	var req models.SignupRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find signup request by id: %w", err)
	}
	return &req, nil
}

// Create inserts a pending request.
func (r *SignupRequestRepository) Create(ctx context.Context, req *models.SignupRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	req.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO signup_requests (id, user_id, email, requested_role, org_id, org_name, notes, status, created_at)
VALUES (:id, :user_id, :email, :requested_role, :org_id, :org_name, :notes, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create signup request: %w", err)
	}
	return nil
}

// List returns requests newest first.
func (r *SignupRequestRepository) List(ctx context.Context, filter models.SignupRequestFilter) ([]models.SignupRequest, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OrgID != nil {
		args = append(args, *filter.OrgID)
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", len(args)))
	}
	query := `SELECT ` + signupRequestColumns + ` FROM signup_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	items := make([]models.SignupRequest, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list signup requests: %w", err)
	}
	return items, nil
}

// UpdateStatus transitions a request and records the organization it resolved to, if any.
func (r *SignupRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, orgID *string) error {
	const query = `UPDATE signup_requests SET status = $2, org_id = COALESCE($3, org_id) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), orgID)
	if err != nil {
		return fmt.Errorf("update signup request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update signup request rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request through the privileged deletion procedure.
func (r *SignupRequestRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT delete_signup_request($1)`, id); err != nil {
		return fmt.Errorf("delete signup request: %w", err)
	}
	return nil
}
