package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ingenia-api/internal/models"
)

const activityColumns = `id, title, objective, materials, materials_media, est_minutes, tags, grades, subjects, visibility, audience, price_mxn, listing_status, owner_id, org_id, created_at`

const activitySummaryColumns = `id, title, objective, tags, visibility, listing_status, price_mxn, created_at`

const sectionColumns = `id, activity_id, "order", name, text, media, allow_uploads, upload_kinds, max_uploads`

// ActivityRepository persists activities and their ordered sections.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts the activity row. It assigns a fresh identifier and creation time.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	activity.ID = uuid.NewString()
	now := time.Now().UTC()
	activity.CreatedAt = &now

	const query = `INSERT INTO activities (` + activityColumns + `, updated_at)
VALUES (:id, :title, :objective, :materials, :materials_media, :est_minutes, :tags, :grades, :subjects, :visibility, :audience, :price_mxn, :listing_status, :owner_id, :org_id, :created_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Update patches every mutable field of the activity. It returns sql.ErrNoRows when id is unknown.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	const query = `UPDATE activities SET title = :title, objective = :objective, materials = :materials, materials_media = :materials_media,
est_minutes = :est_minutes, tags = :tags, grades = :grades, subjects = :subjects, visibility = :visibility, audience = :audience,
price_mxn = :price_mxn, listing_status = :listing_status, org_id = :org_id, updated_at = NOW() WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update activity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertSections writes the sections of a freshly created activity with order 0..n-1.
func (r *ActivityRepository) InsertSections(ctx context.Context, activityID string, sections []models.Section) error {
	rows := prepareSections(activityID, sections)
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.db.NamedExecContext(ctx, insertSectionsQuery, rows); err != nil {
		return fmt.Errorf("insert sections: %w", err)
	}
	return nil
}

// ReplaceSections deletes every section of the activity and inserts the given ordered set in one
// transaction. Section identifiers are not preserved across a replace.
func (r *ActivityRepository) ReplaceSections(ctx context.Context, activityID string, sections []models.Section) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace sections: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sections WHERE activity_id = $1`, activityID); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	if rows := prepareSections(activityID, sections); len(rows) > 0 {
		if _, err = tx.NamedExecContext(ctx, insertSectionsQuery, rows); err != nil {
			return fmt.Errorf("insert sections: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace sections: %w", err)
	}
	return nil
}

// Publish invokes the privileged publish procedure. A nil listing status is passed as NULL.
func (r *ActivityRepository) Publish(ctx context.Context, id string, visibility models.Visibility, listingStatus *models.ListingStatus) error {
	var status interface{}
	if listingStatus != nil {
		status = string(*listingStatus)
	}
	if _, err := r.db.ExecContext(ctx, `SELECT publish_activity($1, $2, $3)`, id, string(visibility), status); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// ListPublic returns public activities newest first.
func (r *ActivityRepository) ListPublic(ctx context.Context) ([]models.ActivitySummary, error) {
	query := `SELECT ` + activitySummaryColumns + ` FROM activities WHERE visibility = 'public' ORDER BY created_at DESC`
	items := make([]models.ActivitySummary, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list public activities: %w", err)
	}
	return items, nil
}

// ListForOrg returns activities shared with the caller's organization or owned by the caller,
// excluding marketplace listings, newest first.
func (r *ActivityRepository) ListForOrg(ctx context.Context, ownerID string, orgID *string) ([]models.ActivitySummary, error) {
	query := `SELECT ` + activitySummaryColumns + ` FROM activities WHERE ((visibility = 'org' AND org_id = $2) OR owner_id = $1) AND visibility <> 'market' ORDER BY created_at DESC`
	items := make([]models.ActivitySummary, 0)
	if err := r.db.SelectContext(ctx, &items, query, ownerID, orgID); err != nil {
		return nil, fmt.Errorf("list org activities: %w", err)
	}
	return items, nil
}

// ListMarketplace returns active marketplace listings newest first.
func (r *ActivityRepository) ListMarketplace(ctx context.Context) ([]models.ActivitySummary, error) {
	query := `SELECT ` + activitySummaryColumns + ` FROM activities WHERE visibility = 'market' AND listing_status = 'active' ORDER BY created_at DESC`
	items := make([]models.ActivitySummary, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list marketplace activities: %w", err)
	}
	return items, nil
}

// FindByID returns the activity row without sections.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1 LIMIT 1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find activity by id: %w", err)
	}
	return &activity, nil
}

// ListSections returns the activity's sections ordered by position.
func (r *ActivityRepository) ListSections(ctx context.Context, activityID string) ([]models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE activity_id = $1 ORDER BY "order" ASC`
	sections := make([]models.Section, 0)
	if err := r.db.SelectContext(ctx, &sections, query, activityID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

const insertSectionsQuery = `INSERT INTO sections (` + sectionColumns + `)
VALUES (:id, :activity_id, :order, :name, :text, :media, :allow_uploads, :upload_kinds, :max_uploads)`

// prepareSections assigns identifiers and positions and fills section defaults.
func prepareSections(activityID string, sections []models.Section) []models.Section {
	rows := make([]models.Section, len(sections))
	for idx, s := range sections {
		allow := s.UploadsAllowed()
		maxUploads := s.UploadCap()
		media := s.Media
		if media == nil {
			media = models.MediaList{}
		}
		rows[idx] = models.Section{
			ID:           uuid.NewString(),
			ActivityID:   activityID,
			Order:        idx,
			Name:         s.Name,
			Text:         s.Text,
			Media:        media,
			AllowUploads: &allow,
			UploadKinds:  s.Kinds(),
			MaxUploads:   &maxUploads,
		}
	}
	return rows
}
