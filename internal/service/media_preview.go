package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/noah-isme/ingenia-api/pkg/jobs"
	"github.com/noah-isme/ingenia-api/pkg/storage"
)

// PreviewSuffix is appended to an object path to name its preview.
const PreviewSuffix = ".preview.jpg"

const defaultPreviewWidth = 480

// PreviewJob asks for a downscaled preview of an uploaded image.
type PreviewJob struct {
	Path string `json:"path"`
}

// PreviewGenerator renders JPEG previews next to uploaded images.
type PreviewGenerator struct {
	store  storage.BlobStore
	width  int
	logger *zap.Logger
}

// NewPreviewGenerator constructs the generator. Width falls back to 480 pixels.
func NewPreviewGenerator(store storage.BlobStore, width int, logger *zap.Logger) *PreviewGenerator {
	if width <= 0 {
		width = defaultPreviewWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewGenerator{store: store, width: width, logger: logger}
}

// NewPreviewQueue wires the generator to a background worker queue.
func NewPreviewQueue(gen *PreviewGenerator, cfg jobs.QueueConfig) *jobs.Queue[PreviewJob] {
	return jobs.NewQueue[PreviewJob]("media_preview", gen.Handle, cfg)
}

// Handle is the queue handler for preview jobs.
func (g *PreviewGenerator) Handle(ctx context.Context, job jobs.Job[PreviewJob]) error {
	return g.Generate(ctx, job.Payload.Path)
}

// Generate writes the preview of objectPath. An existing preview counts as done.
func (g *PreviewGenerator) Generate(ctx context.Context, objectPath string) error {
	rc, err := g.store.Open(ctx, objectPath)
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	raw, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	preview := scaleToWidth(img, g.width)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, preview, &jpeg.Options{Quality: 82}); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := g.store.Put(ctx, objectPath+PreviewSuffix, &buf, "image/jpeg"); err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return nil
		}
		return fmt.Errorf("store preview: %w", err)
	}
	g.logger.Debug("preview generated", zap.String("path", objectPath))
	return nil
}

// scaleToWidth keeps the aspect ratio and never upscales.
func scaleToWidth(src image.Image, width int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= width {
		width = bounds.Dx()
	}
	height := bounds.Dy() * width / max(bounds.Dx(), 1)
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
