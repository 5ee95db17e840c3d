package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/noah-isme/ingenia-api/internal/dto"
	"github.com/noah-isme/ingenia-api/internal/media"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/jobs"
	"github.com/noah-isme/ingenia-api/pkg/logger"
	"github.com/noah-isme/ingenia-api/pkg/storage"
)

// Upload results reported to metrics.
const (
	uploadResultSuccess  = "success"
	uploadResultRejected = "rejected"
	uploadResultFailed   = "failed"
)

const defaultMaxUploadBytes = 25 << 20

type previewEnqueuer interface {
	Enqueue(job jobs.Job[PreviewJob]) error
}

// MediaServiceConfig configures upload validation and collaborators.
type MediaServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	Signer       *storage.SignedURLSigner
	Previews     previewEnqueuer
	Metrics      *MetricsService
	Logger       *zap.Logger
	Timeout      time.Duration
}

// MediaService uploads attachments to the blob store under the uploader's own prefix.
type MediaService struct {
	store    storage.BlobStore
	signer   *storage.SignedURLSigner
	previews previewEnqueuer
	metrics  *MetricsService
	logger   *zap.Logger
	maxSize  int64
	allowed  []string
	timeout  time.Duration
	now      func() time.Time
}

// NewMediaService constructs the service.
func NewMediaService(store storage.BlobStore, cfg MediaServiceConfig) *MediaService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxUploadBytes
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/*", "video/mp4", "video/webm"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MediaService{
		store:    store,
		signer:   cfg.Signer,
		previews: cfg.Previews,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		maxSize:  cfg.MaxFileSize,
		allowed:  cfg.AllowedMIMEs,
		timeout:  cfg.Timeout,
		now:      time.Now,
	}
}

// Upload stores the file at <uid>/<millis>_<slug>.<ext> and returns the attachment pointing at its
// public URL. Existing objects are never overwritten.
func (s *MediaService) Upload(ctx context.Context, actor models.Actor, filename string, r io.Reader) (*dto.MediaUploadResponse, error) {
	if !actor.Authenticated() {
		s.metrics.RecordMediaUpload(uploadResultRejected)
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "sign in to upload files")
	}
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		s.metrics.RecordMediaUpload(uploadResultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		s.metrics.RecordMediaUpload(uploadResultFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.maxSize {
		s.metrics.RecordMediaUpload(uploadResultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}
	if len(data) == 0 {
		s.metrics.RecordMediaUpload(uploadResultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	detected := mimetype.Detect(data)
	kind, ok := s.classify(detected)
	if !ok {
		s.metrics.RecordMediaUpload(uploadResultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type "+detected.String())
	}

	objectPath := storage.ObjectPath(actor.UserID(), filename, s.now())
	err = appErrors.WithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.store.Put(ctx, objectPath, bytes.NewReader(data), detected.String())
	})
	if err != nil {
		s.metrics.RecordMediaUpload(uploadResultFailed)
		logger.FromContext(ctx, s.logger).Warn("media upload failed", zap.String("path", objectPath), zap.Error(err))
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a file with this name was just uploaded, try again")
		}
		return nil, appErrors.Remote(err, "failed to upload file")
	}
	s.metrics.RecordMediaUpload(uploadResultSuccess)

	if kind == models.MediaImage && s.previews != nil {
		job := jobs.Job[PreviewJob]{ID: uuid.NewString(), Payload: PreviewJob{Path: objectPath}}
		if err := s.previews.Enqueue(job); err != nil {
			s.logger.Warn("preview not scheduled", zap.String("path", objectPath), zap.Error(err))
		}
	}

	return &dto.MediaUploadResponse{
		Item: models.MediaItem{Kind: kind, URL: s.store.PublicURL(objectPath), Name: filename},
		Path: objectPath,
	}, nil
}

// classify maps a sniffed type to an attachment kind when the configuration allows it.
func (s *MediaService) classify(detected *mimetype.MIME) (models.MediaKind, bool) {
	var kind models.MediaKind
	switch {
	case strings.HasPrefix(detected.String(), "image/"):
		kind = models.MediaImage
	case strings.HasPrefix(detected.String(), "video/"):
		kind = models.MediaVideo
	default:
		return "", false
	}
	for _, allowed := range s.allowed {
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(detected.String(), prefix+"/") {
				return kind, true
			}
			continue
		}
		if detected.Is(allowed) {
			return kind, true
		}
	}
	return "", false
}

// SignURL issues a time-limited read token for an object under the caller's own prefix.
func (s *MediaService) SignURL(actor models.Actor, objectPath string) (string, time.Time, error) {
	if !actor.Authenticated() {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrAuthRequired, "sign in required")
	}
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "signed links are not enabled")
	}
	if !strings.HasPrefix(objectPath, actor.UserID()+"/") {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrForbidden, "files can only be shared by their owner")
	}
	token, expiresAt, err := s.signer.Sign(objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid file path")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign link")
	}
	return token, expiresAt, nil
}

// OpenSigned opens the object granted by token after checking it matches objectPath.
func (s *MediaService) OpenSigned(ctx context.Context, objectPath, token string) (io.ReadCloser, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "signed links are not enabled")
	}
	granted, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid link")
	}
	if granted != strings.TrimPrefix(objectPath, "/") {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid link")
	}
	return s.Open(ctx, granted)
}

// Open streams a stored object along with its content type.
func (s *MediaService) Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error) {
	objectPath = strings.TrimPrefix(objectPath, "/")
	rc, err := s.store.Open(ctx, objectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, "", appErrors.Remote(err, "failed to open file")
	}
	// The content type is sniffed from the stored bytes, the same way uploads are checked.
	br := bufio.NewReaderSize(rc, sniffBytes)
	head, _ := br.Peek(sniffBytes)
	return sniffedReader{Reader: br, Closer: rc}, mimetype.Detect(head).String(), nil
}

const sniffBytes = 3072

type sniffedReader struct {
	io.Reader
	io.Closer
}

// UploaderFor adapts the service to a media list owned by actor.
func (s *MediaService) UploaderFor(actor models.Actor) media.Uploader {
	return actorUploader{service: s, actor: actor}
}

type actorUploader struct {
	service *MediaService
	actor   models.Actor
}

func (u actorUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	res, err := u.service.Upload(ctx, u.actor, filename, r)
	if err != nil {
		return "", err
	}
	return res.Item.URL, nil
}
