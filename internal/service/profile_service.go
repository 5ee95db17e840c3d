package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	Patch(ctx context.Context, id string, patch models.ProfilePatch) error
	CreatePending(ctx context.Context, id, email, displayName string) (*models.Profile, error)
	ApproveByEmail(ctx context.Context, email string, role models.Role, orgID string) error
}

// ProfileService resolves identities into application profiles.
type ProfileService struct {
	repo    profileRepository
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

// NewProfileService constructs the resolver.
func NewProfileService(repo profileRepository, metrics *MetricsService, logger *zap.Logger, timeout time.Duration) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, metrics: metrics, logger: logger, timeout: timeout}
}

// Resolve returns the profile of the identity, backfilling a missing email or display name, or
// creating a pending profile on first sight. Fields that are already set are never overwritten.
func (s *ProfileService) Resolve(ctx context.Context, session models.Session) (*models.Profile, error) {
	var resolved *models.Profile
	err := appErrors.WithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		start := time.Now()
		defer func() { s.metrics.ObserveDBQuery("profile_resolve", time.Since(start)) }()

		profile, err := s.repo.FindByID(ctx, session.UserID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created, err := s.repo.CreatePending(ctx, session.UserID, session.Email, session.BestDisplayName())
			if err != nil {
				return err
			}
			s.metrics.RecordProfileResolution("created")
			s.logger.Info("created pending profile", zap.String("user_id", session.UserID))
			resolved = created
			return nil
		case err != nil:
			return err
		}

		patch := backfillPatch(profile, session)
		if patch.Empty() {
			s.metrics.RecordProfileResolution("found")
			resolved = profile
			return nil
		}
		if err := s.repo.Patch(ctx, profile.ID, patch); err != nil {
			return err
		}
		if patch.Email != nil {
			profile.Email = *patch.Email
		}
		if patch.DisplayName != nil {
			profile.DisplayName = *patch.DisplayName
		}
		s.metrics.RecordProfileResolution("backfilled")
		resolved = profile
		return nil
	})
	if err != nil {
		s.metrics.RecordProfileResolution("failed")
		return nil, appErrors.Remote(err, "failed to resolve profile")
	}
	return resolved, nil
}

// backfillPatch fills only missing fields and only when the identity carries an email.
func backfillPatch(p *models.Profile, session models.Session) models.ProfilePatch {
	var patch models.ProfilePatch
	if session.Email == "" || (p.Email != "" && p.DisplayName != "") {
		return patch
	}
	if p.Email == "" {
		email := session.Email
		patch.Email = &email
	}
	if p.DisplayName == "" {
		name := session.BestDisplayName()
		patch.DisplayName = &name
	}
	return patch
}

// Get returns the stored profile for an identity without side effects.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Remote(err, "failed to load profile")
	}
	return profile, nil
}
