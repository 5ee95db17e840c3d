package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/pkg/logger"
)

type activityLister interface {
	ListPublic(ctx context.Context) ([]models.ActivitySummary, error)
	ListMarketplace(ctx context.Context) ([]models.ActivitySummary, error)
	ListForOrg(ctx context.Context, actor models.Actor) ([]models.ActivitySummary, error)
}

// LandingService assembles the home page aggregate.
type LandingService struct {
	activities activityLister
	logger     *zap.Logger
}

// NewLandingService constructs the aggregator.
func NewLandingService(activities activityLister, logger *zap.Logger) *LandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LandingService{activities: activities, logger: logger}
}

// Load fetches the public and marketplace listings in parallel and, only for an authenticated
// caller, the organization listing afterwards. Each category that fails degrades to an empty list
// so one failure never hides the others.
func (s *LandingService) Load(ctx context.Context, actor models.Actor) (*models.Landing, error) {
	landing := &models.Landing{
		Public:      []models.ActivitySummary{},
		Org:         []models.ActivitySummary{},
		Marketplace: []models.ActivitySummary{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		landing.Public = s.degrade(gctx, "public", s.activities.ListPublic)
		return nil
	})
	g.Go(func() error {
		landing.Marketplace = s.degrade(gctx, "marketplace", s.activities.ListMarketplace)
		return nil
	})
	_ = g.Wait()

	if !actor.Authenticated() {
		return landing, nil
	}
	landing.ShowOrg = true
	landing.Org = s.degrade(ctx, "org", func(ctx context.Context) ([]models.ActivitySummary, error) {
		return s.activities.ListForOrg(ctx, actor)
	})
	return landing, nil
}

func (s *LandingService) degrade(ctx context.Context, category string, load func(context.Context) ([]models.ActivitySummary, error)) []models.ActivitySummary {
	items, err := load(ctx)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("landing category unavailable", zap.String("category", category), zap.Error(err))
		return []models.ActivitySummary{}
	}
	if items == nil {
		return []models.ActivitySummary{}
	}
	return items
}
