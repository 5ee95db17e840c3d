package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ingenia-api/api/swagger"
	"github.com/noah-isme/ingenia-api/internal/handler"
	"github.com/noah-isme/ingenia-api/internal/middleware"
	"github.com/noah-isme/ingenia-api/internal/repository"
	"github.com/noah-isme/ingenia-api/internal/service"
	"github.com/noah-isme/ingenia-api/pkg/cache"
	"github.com/noah-isme/ingenia-api/pkg/config"
	"github.com/noah-isme/ingenia-api/pkg/database"
	"github.com/noah-isme/ingenia-api/pkg/export"
	"github.com/noah-isme/ingenia-api/pkg/jobs"
	"github.com/noah-isme/ingenia-api/pkg/localstore"
	"github.com/noah-isme/ingenia-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ingenia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ingenia-api/pkg/middleware/requestid"
	"github.com/noah-isme/ingenia-api/pkg/storage"
)

// @title Ingenia STEAM API
// @version 1.0.0
// @description Authoring, publishing and playing STEAM activities.
// @BasePath /api/v1
// @schemes http https

const stateTTL = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewPostgres(connectCtx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("record store unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(connectCtx, cfg.Redis)
	cancelConnect()
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	defer redisClient.Close()

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("media storage unavailable", "error", err, "driver", cfg.Storage.Driver)
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	timeout := cfg.OperationTimeout

	listings := service.NewListingCache(repository.NewCacheRepository(redisClient, "ingenia"), metrics, cfg.Listings.CacheTTL, logr, cfg.Listings.CacheEnabled)

	profiles := service.NewProfileService(repository.NewProfileRepository(db), metrics, logr, timeout)
	activities := service.NewActivityService(repository.NewActivityRepository(db), service.ActivityServiceConfig{
		Listings:  listings,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Timeout:   timeout,
	})
	exports := service.NewExportService(activities, export.NewPDFExporter(), logr)
	landing := service.NewLandingService(activities, logr)
	signups := service.NewSignupService(
		repository.NewSignupRequestRepository(db),
		repository.NewOrganizationRepository(db),
		repository.NewProfileRepository(db),
		metrics, validate, logr, timeout,
	)
	state := service.NewStateService(func(userID string) localstore.Store {
		return localstore.NewRedisStore(redisClient, "state:"+userID, stateTTL)
	}, activities, exports, metrics, logr)

	mediaCfg := service.MediaServiceConfig{
		MaxFileSize:  cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
		Signer:       storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL),
		Metrics:      metrics,
		Logger:       logr,
		Timeout:      timeout,
	}
	if cfg.Media.PreviewsEnabled {
		previews := service.NewPreviewQueue(service.NewPreviewGenerator(blobs, cfg.Media.PreviewWidth, logr), jobs.QueueConfig{
			Workers:    cfg.Media.Workers,
			MaxRetries: cfg.Media.WorkerRetries,
			Logger:     logr,
			Observer:   metrics.RecordJobOutcome,
		})
		previews.Start(ctx)
		defer previews.Stop()
		mediaCfg.Previews = previews
	}
	media := service.NewMediaService(blobs, mediaCfg)

	auth := middleware.NewAuthenticator(service.NewTokenService(cfg.Auth), profiles, logr)

	r := gin.New()
	r.Use(logger.Recovery(logr, cfg.Env != config.EnvProduction))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mediaHandler := handler.NewMediaHandler(media, publicOrigin(cfg)+cfg.APIPrefix+"/media/signed")
	if cfg.Storage.Driver == config.StorageDriverLocal {
		r.GET("/media/*path", mediaHandler.Serve)
	}

	registerRoutes(r.Group(cfg.APIPrefix), auth, routeHandlers{
		activities: handler.NewActivityHandler(activities, exports),
		landing:    handler.NewLandingHandler(landing),
		media:      mediaHandler,
		signups:    handler.NewSignupHandler(signups),
		state:      handler.NewStateHandler(state),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type routeHandlers struct {
	activities *handler.ActivityHandler
	landing    *handler.LandingHandler
	media      *handler.MediaHandler
	signups    *handler.SignupHandler
	state      *handler.StateHandler
}

func registerRoutes(api *gin.RouterGroup, auth *middleware.Authenticator, h routeHandlers) {
	optional := api.Group("", auth.OptionalJWT())
	optional.GET("/landing", h.landing.Landing)
	optional.GET("/activities/public", h.activities.ListPublic)
	optional.GET("/activities/org", h.activities.ListOrg)
	optional.GET("/activities/marketplace", h.activities.ListMarketplace)
	optional.GET("/activities/:id", h.activities.Get)
	optional.GET("/activities/:id/export.json", h.activities.ExportJSON)
	optional.GET("/activities/:id/export.pdf", h.activities.ExportPDF)
	optional.GET("/media/signed/*path", h.media.Signed)
	optional.POST("/signup-requests", h.signups.Submit)

	secured := api.Group("", auth.JWT())
	secured.GET("/me", h.landing.Me)
	secured.POST("/media", h.media.Upload)
	secured.POST("/media/sign", h.media.Sign)

	authoring := secured.Group("", middleware.RequireCreate())
	authoring.POST("/activities", h.activities.Create)
	authoring.PUT("/activities/:id", h.activities.Update)
	authoring.POST("/activities/:id/publish", h.activities.Publish)

	stateGroup := secured.Group("/state")
	stateGroup.GET("/draft", h.state.Draft)
	stateGroup.PUT("/draft", h.state.ImportDraft)
	stateGroup.DELETE("/draft", h.state.ResetDraft)
	stateGroup.POST("/draft/events", h.state.DispatchDraft)
	stateGroup.POST("/draft/save", h.state.SaveDraft)
	stateGroup.POST("/draft/publish", h.state.PublishDraft)
	stateGroup.GET("/draft/export.json", h.state.ExportDraft)
	stateGroup.GET("/progress/:activityId", h.state.Progress)
	stateGroup.POST("/progress/:activityId/events", h.state.DispatchProgress)

	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.GET("/signup-requests", h.signups.List)
	admin.GET("/signup-requests/export.csv", h.signups.ExportCSV)
	admin.POST("/signup-requests/:id/approve", h.signups.Approve)
	admin.POST("/signup-requests/:id/reject", h.signups.Reject)
	admin.DELETE("/signup-requests/:id", h.signups.Remove)
	admin.GET("/organizations", h.signups.Organizations)
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	if cfg.Driver == config.StorageDriverGCS {
		gcs, err := storage.NewGCSStorage(ctx, cfg.Bucket, cfg.PublicBaseURL, cfg.GCSCredentials)
		if err != nil {
			return nil, err
		}
		return gcs, nil
	}
	local, err := storage.NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	return map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// publicOrigin derives the scheme and host clients use to reach the API from the media base URL.
func publicOrigin(cfg *config.Config) string {
	if origin, ok := strings.CutSuffix(cfg.Storage.PublicBaseURL, "/media"); ok && origin != "" {
		return origin
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Port)
}
