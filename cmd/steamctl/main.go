// Command steamctl authors and plays STEAM activities from a terminal. The draft and the player
// progress live in a file-backed store under STATE_DIR so they survive between invocations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/permission"
	"github.com/noah-isme/ingenia-api/internal/repository"
	"github.com/noah-isme/ingenia-api/internal/service"
	"github.com/noah-isme/ingenia-api/internal/session"
	"github.com/noah-isme/ingenia-api/pkg/config"
	"github.com/noah-isme/ingenia-api/pkg/database"
	"github.com/noah-isme/ingenia-api/pkg/export"
	"github.com/noah-isme/ingenia-api/pkg/localstore"
	"github.com/noah-isme/ingenia-api/pkg/logger"
	"github.com/noah-isme/ingenia-api/pkg/storage"
)

const usage = `usage: steamctl [flags] <command> [args]

commands:
  whoami
  landing
  draft show | set <field> <value> | section <index> <name|text|uploads|kinds|max> <value>
        attach <index|materials> <image|video|link> <file-or-url> | save | publish | reset
        export [-pdf] [-o path] | import <path>
  play <activity-id|seed:<id>> show | goto <n> | next | prev | done | reset
        upload <step-key> <image|video|link> <file-or-url>
`

// app carries the collaborators every subcommand needs. Remote services are nil when the record
// store is unreachable; draft editing and seed play keep working offline.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      localstore.Store
	sessions   *session.Context
	profiles   *service.ProfileService
	activities *service.ActivityService
	exports    *service.ExportService
	landing    *service.LandingService
	media      *service.MediaService
	out        io.Writer
}

func main() {
	fs := flag.NewFlagSet("steamctl", flag.ExitOnError)
	token := fs.String("token", os.Getenv("STEAM_TOKEN"), "access token issued by the identity provider")
	stateDir := fs.String("state-dir", "", "directory of the local draft and progress store (defaults to STATE_DIR)")
	offline := fs.Bool("offline", false, "skip the record store; only local drafts and seed activities are available")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage); fs.PrintDefaults() }
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	dir := cfg.State.Dir
	if *stateDir != "" {
		dir = *stateDir
	}
	store, err := localstore.NewFileStore(dir)
	if err != nil {
		logr.Sugar().Fatalw("state store unavailable", "error", err, "dir", dir)
	}

	ctx := context.Background()
	a := &app{cfg: cfg, logger: logr, store: store, out: os.Stdout}
	if !*offline {
		a.connect(ctx)
	}
	if a.exports == nil {
		a.exports = service.NewExportService(nil, export.NewPDFExporter(), logr)
	}

	var resolver session.Resolver
	if a.profiles != nil {
		resolver = a.profiles
	}
	a.sessions = session.New(resolver, logr, cfg.OperationTimeout)
	if *token != "" {
		sess, err := service.NewTokenService(cfg.Auth).Validate(*token)
		if err != nil {
			fail(err)
		}
		sess.AccessToken = *token
		a.sessions.SetSession(ctx, sess)
	}

	if err := a.run(ctx, fs.Args()); err != nil {
		fail(err)
	}
}

// connect wires the remote services. A failed connection leaves them nil.
func (a *app) connect(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	db, err := database.NewPostgres(pingCtx, a.cfg.Database)
	if err != nil {
		a.logger.Warn("record store unavailable, running offline", zap.Error(err))
		return
	}
	timeout := a.cfg.OperationTimeout
	a.profiles = service.NewProfileService(repository.NewProfileRepository(db), nil, a.logger, timeout)
	a.activities = service.NewActivityService(repository.NewActivityRepository(db), service.ActivityServiceConfig{
		Logger:  a.logger,
		Timeout: timeout,
	})
	a.exports = service.NewExportService(a.activities, export.NewPDFExporter(), a.logger)
	a.landing = service.NewLandingService(a.activities, a.logger)

	blobs, err := openBlobStore(ctx, a.cfg.Storage)
	if err != nil {
		a.logger.Warn("media storage unavailable, uploads disabled", zap.Error(err))
		return
	}
	a.media = service.NewMediaService(blobs, service.MediaServiceConfig{
		MaxFileSize:  a.cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs: a.cfg.Storage.AllowedMIMEs,
		Logger:       a.logger,
		Timeout:      timeout,
	})
}

func openBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
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

func (a *app) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "whoami":
		return a.whoami()
	case "landing":
		return a.showLanding(ctx)
	case "draft":
		return a.draft(ctx, args[1:])
	case "play":
		return a.play(ctx, args[1:])
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func (a *app) whoami() error {
	snap := a.sessions.Snapshot()
	return a.print(map[string]interface{}{
		"session":      snap.Session,
		"profile":      snap.Profile,
		"capabilities": permission.Evaluate(snap.Session, snap.Profile),
	})
}

func (a *app) showLanding(ctx context.Context) error {
	if a.landing == nil {
		return fmt.Errorf("landing needs the record store")
	}
	loader := session.NewLoader(a.sessions, a.landing, a.logger)
	loader.Trigger(ctx)
	landing := loader.Landing()
	if landing == nil {
		return fmt.Errorf("landing could not be loaded")
	}
	return a.print(landing)
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "steamctl:", strings.TrimSpace(err.Error()))
	os.Exit(1)
}
