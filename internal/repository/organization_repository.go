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

// OrganizationRepository persists schools and institutions.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// List returns all organizations by name.
func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	const query = `SELECT id, name, created_at FROM organizations ORDER BY name ASC`
	orgs := make([]models.Organization, 0)
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// FindByID returns an organization.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, name, created_at FROM organizations WHERE id = $1 LIMIT 1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization by id: %w", err)
	}
	return &org, nil
}

// Create inserts an organization with the given name.
func (r *OrganizationRepository) Create(ctx context.Context, name string) (*models.Organization, error) {
	org := &models.Organization{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO organizations (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}
