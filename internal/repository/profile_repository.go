package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ingenia-api/internal/models"
)

const profileColumns = `id, COALESCE(display_name, '') AS display_name, COALESCE(email, '') AS email, role, org_id, approved, created_at`

// ProfileRepository provides access to application profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns the profile bound to an identity.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// FindByEmail returns a profile by case-insensitive email.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, strings.TrimSpace(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	return &profile, nil
}

// Patch writes only the fields set on the patch.
func (r *ProfileRepository) Patch(ctx context.Context, id string, patch models.ProfilePatch) error {
	if patch.Empty() {
		return nil
	}
	sets := make([]string, 0, 2)
	args := []interface{}{id}
	if patch.Email != nil {
		args = append(args, *patch.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if patch.DisplayName != nil {
		args = append(args, *patch.DisplayName)
		sets = append(sets, fmt.Sprintf("display_name = $%d", len(args)))
	}
	query := fmt.Sprintf("UPDATE profiles SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch profile: %w", err)
	}
	return nil
}

// CreatePending inserts a pending, unapproved profile. When a profile already exists for the id the
// stored row is returned unchanged, so a racing creation never downgrades an approved profile.
func (r *ProfileRepository) CreatePending(ctx context.Context, id, email, displayName string) (*models.Profile, error) {
	query := `INSERT INTO profiles (id, email, display_name, role, approved, created_at)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), 'pending', FALSE, NOW())
ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
RETURNING ` + profileColumns
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id, email, displayName); err != nil {
		return nil, fmt.Errorf("create pending profile: %w", err)
	}
	return &profile, nil
}

// ApproveByEmail grants a role and organization through the privileged approval procedure.
func (r *ProfileRepository) ApproveByEmail(ctx context.Context, email string, role models.Role, orgID string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT approve_profile_by_email($1, $2, $3)`, email, string(role), orgID); err != nil {
		return fmt.Errorf("approve profile by email: %w", err)
	}
	return nil
}
