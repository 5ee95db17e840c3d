package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/permission"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/logger"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	InsertSections(ctx context.Context, activityID string, sections []models.Section) error
	ReplaceSections(ctx context.Context, activityID string, sections []models.Section) error
	Publish(ctx context.Context, id string, visibility models.Visibility, listingStatus *models.ListingStatus) error
	ListPublic(ctx context.Context) ([]models.ActivitySummary, error)
	ListForOrg(ctx context.Context, ownerID string, orgID *string) ([]models.ActivitySummary, error)
	ListMarketplace(ctx context.Context) ([]models.ActivitySummary, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	ListSections(ctx context.Context, activityID string) ([]models.Section, error)
}

// ActivityService is the record gateway for activities.
type ActivityService struct {
	repo      activityRepository
	listings  *ListingCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
}

// ActivityServiceConfig bundles the optional collaborators of the gateway.
type ActivityServiceConfig struct {
	Listings  *ListingCache
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Timeout   time.Duration
}

// NewActivityService constructs the gateway.
func NewActivityService(repo activityRepository, cfg ActivityServiceConfig) *ActivityService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	return &ActivityService{
		repo:      repo,
		listings:  cfg.Listings,
		metrics:   cfg.Metrics,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
	}
}

type activityFields struct {
	Visibility    models.Visibility    `validate:"omitempty,oneof=public org private market"`
	Audience      models.Audience      `validate:"omitempty,oneof=both students teachers"`
	ListingStatus models.ListingStatus `validate:"omitempty,oneof=draft active archived"`
	PriceMXN      *float64             `validate:"omitempty,gte=0"`
	EstMinutes    *int                 `validate:"omitempty,gte=0"`
}

// Create persists a new activity owned by the actor, then inserts its sections. A section failure
// after the activity row was written is returned as an error and the row is left in place.
func (s *ActivityService) Create(ctx context.Context, actor models.Actor, activity models.Activity) (*models.Activity, error) {
	if err := s.authorizeWrite(actor); err != nil {
		return nil, err
	}
	record, err := s.prepare(actor, activity)
	if err != nil {
		return nil, err
	}
	record.OwnerID = actor.UserID()

	if err := s.call(ctx, "activity_create", func(ctx context.Context) error {
		return s.repo.Create(ctx, record)
	}); err != nil {
		return nil, appErrors.Remote(err, "failed to create activity")
	}
	if err := s.call(ctx, "sections_insert", func(ctx context.Context) error {
		return s.repo.InsertSections(ctx, record.ID, record.Sections)
	}); err != nil {
		logger.FromContext(ctx, s.logger).Warn("sections insert failed after activity insert", zap.String("activity_id", record.ID), zap.Error(err))
		s.invalidateListings(ctx)
		return nil, appErrors.Remote(err, "activity saved without sections")
	}

	s.invalidateListings(ctx)
	logger.FromContext(ctx, s.logger).Info("activity created", zap.String("activity_id", record.ID), zap.String("owner_id", record.OwnerID))
	return withSectionOrder(record), nil
}

// Update overwrites every mutable field and replaces the section list when one is given.
func (s *ActivityService) Update(ctx context.Context, actor models.Actor, id string, activity models.Activity) (*models.Activity, error) {
	if err := s.authorizeWrite(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity id is required")
	}
	record, err := s.prepare(actor, activity)
	if err != nil {
		return nil, err
	}
	record.ID = id

	if err := s.call(ctx, "activity_update", func(ctx context.Context) error {
		return s.repo.Update(ctx, record)
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Remote(err, "failed to update activity")
	}
	if activity.Sections != nil {
		if err := s.call(ctx, "sections_replace", func(ctx context.Context) error {
			return s.repo.ReplaceSections(ctx, id, record.Sections)
		}); err != nil {
			return nil, appErrors.Remote(err, "failed to replace sections")
		}
	}

	s.invalidateListings(ctx)
	return withSectionOrder(record), nil
}

// Publish applies the privileged visibility transition. Listing status is only forwarded for
// marketplace activities.
func (s *ActivityService) Publish(ctx context.Context, actor models.Actor, id string, visibility models.Visibility, status *models.ListingStatus) error {
	if err := s.authorizeWrite(actor); err != nil {
		return err
	}
	if !visibility.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid visibility")
	}
	if visibility != models.VisibilityMarket {
		status = nil
	} else if status == nil || *status == "" {
		draft := models.ListingDraft
		status = &draft
	}
	if status != nil {
		if err := s.validator.Var(string(*status), "oneof=draft active archived"); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid listing status")
		}
	}

	if err := s.call(ctx, "activity_publish", func(ctx context.Context) error {
		return s.repo.Publish(ctx, id, visibility, status)
	}); err != nil {
		return appErrors.Remote(err, "failed to publish activity")
	}
	s.invalidateListings(ctx)
	logger.FromContext(ctx, s.logger).Info("activity published", zap.String("activity_id", id), zap.String("visibility", string(visibility)))
	return nil
}

// ListPublic returns public activities newest first.
func (s *ActivityService) ListPublic(ctx context.Context) ([]models.ActivitySummary, error) {
	return s.cachedList(ctx, listingPublic, "list_public", s.repo.ListPublic)
}

// ListMarketplace returns active marketplace listings newest first.
func (s *ActivityService) ListMarketplace(ctx context.Context) ([]models.ActivitySummary, error) {
	return s.cachedList(ctx, listingMarketplace, "list_marketplace", s.repo.ListMarketplace)
}

// ListForOrg returns what the actor's organization shares plus what the actor owns. Anonymous
// callers get an empty list.
func (s *ActivityService) ListForOrg(ctx context.Context, actor models.Actor) ([]models.ActivitySummary, error) {
	if !actor.Authenticated() {
		return []models.ActivitySummary{}, nil
	}
	var items []models.ActivitySummary
	err := s.call(ctx, "list_org", func(ctx context.Context) error {
		var err error
		items, err = s.repo.ListForOrg(ctx, actor.UserID(), actor.OrgID())
		return err
	})
	if err != nil {
		return nil, appErrors.Remote(err, "failed to list organization activities")
	}
	return items, nil
}

// FetchOne returns an activity with its sections in order.
func (s *ActivityService) FetchOne(ctx context.Context, id string) (*models.Activity, error) {
	var activity *models.Activity
	err := s.call(ctx, "activity_fetch", func(ctx context.Context) error {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		sections, err := s.repo.ListSections(ctx, id)
		if err != nil {
			return err
		}
		found.Sections = sections
		activity = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Remote(err, "failed to load activity")
	}
	return activity, nil
}

func (s *ActivityService) authorizeWrite(actor models.Actor) error {
	if !actor.Authenticated() {
		return appErrors.Clone(appErrors.ErrAuthRequired, "sign in to save activities")
	}
	if actor.Profile == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	if !permission.CanCreate(actor.Session, actor.Profile) {
		return appErrors.Clone(appErrors.ErrForbidden, "profile is not allowed to create activities")
	}
	return nil
}

// prepare validates the payload and applies the write defaults and the organization invariant.
func (s *ActivityService) prepare(actor models.Actor, activity models.Activity) (*models.Activity, error) {
	fields := activityFields{
		Visibility:    activity.Visibility,
		Audience:      activity.Audience,
		ListingStatus: activity.ListingStatus,
		PriceMXN:      activity.PriceMXN,
		EstMinutes:    activity.EstMinutes,
	}
	if err := s.validator.Struct(fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	for i, section := range activity.Sections {
		for _, kind := range section.UploadKinds {
			if !kind.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, "invalid upload kind in section "+sectionLabel(section, i))
			}
		}
		if section.MaxUploads != nil && *section.MaxUploads < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max uploads must not be negative in section "+sectionLabel(section, i))
		}
	}

	record := activity
	if record.Visibility == "" {
		record.Visibility = models.VisibilityOrg
	}
	if record.Audience == "" {
		record.Audience = models.AudienceBoth
	}
	if record.ListingStatus == "" {
		record.ListingStatus = models.ListingDraft
	}
	if record.MaterialsMedia == nil {
		record.MaterialsMedia = models.MediaList{}
	}
	for _, list := range []*pq.StringArray{&record.Materials, &record.Tags, &record.Grades, &record.Subjects} {
		if *list == nil {
			*list = pq.StringArray{}
		}
	}
	record.OrgID = models.ResolveOrgID(record.Visibility, activity.OrgID, actor.OrgID())
	record.Sections = append([]models.Section(nil), activity.Sections...)
	return &record, nil
}

func sectionLabel(section models.Section, i int) string {
	if section.Name != "" {
		return section.Name
	}
	return "#" + strconv.Itoa(i)
}

func withSectionOrder(activity *models.Activity) *models.Activity {
	for i := range activity.Sections {
		activity.Sections[i].ActivityID = activity.ID
		activity.Sections[i].Order = i
	}
	return activity
}

func (s *ActivityService) call(ctx context.Context, name string, fn func(context.Context) error) error {
	return timedCall(ctx, s.metrics, s.timeout, name, fn)
}

func (s *ActivityService) cachedList(ctx context.Context, category, name string, load func(context.Context) ([]models.ActivitySummary, error)) ([]models.ActivitySummary, error) {
	return s.listings.Load(ctx, category, func(ctx context.Context) ([]models.ActivitySummary, error) {
		var items []models.ActivitySummary
		err := s.call(ctx, name, func(ctx context.Context) error {
			var err error
			items, err = load(ctx)
			return err
		})
		if err != nil {
			return nil, appErrors.Remote(err, "failed to list activities")
		}
		return items, nil
	})
}

func (s *ActivityService) invalidateListings(ctx context.Context) {
	s.listings.Invalidate(ctx)
}

// For binds the gateway to one author so it can back a draft editor.
func (s *ActivityService) For(actor models.Actor) *ActorGateway {
	return &ActorGateway{service: s, actor: actor}
}

// ActorGateway is the gateway seen by a single author.
type ActorGateway struct {
	service *ActivityService
	actor   models.Actor
}

// Create persists a new activity for the bound author.
func (g *ActorGateway) Create(ctx context.Context, activity models.Activity) (*models.Activity, error) {
	return g.service.Create(ctx, g.actor, activity)
}

// Update overwrites an activity of the bound author.
func (g *ActorGateway) Update(ctx context.Context, id string, activity models.Activity) (*models.Activity, error) {
	return g.service.Update(ctx, g.actor, id, activity)
}

// Publish applies the publish transition as the bound author.
func (g *ActorGateway) Publish(ctx context.Context, id string, visibility models.Visibility, status *models.ListingStatus) error {
	return g.service.Publish(ctx, g.actor, id, visibility, status)
}
