package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/media"
	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/jobs"
	"github.com/noah-isme/ingenia-api/pkg/storage"
)

type previewQueueMock struct {
	jobs []jobs.Job[PreviewJob]
	err  error
}

func (m *previewQueueMock) Enqueue(job jobs.Job[PreviewJob]) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newMediaFixture(t *testing.T) (*MediaService, *storage.LocalStorage, *previewQueueMock) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)
	queue := &previewQueueMock{}
	svc := NewMediaService(store, MediaServiceConfig{
		MaxFileSize: 64 << 10,
		Signer:      storage.NewSignedURLSigner("secret", time.Minute),
		Previews:    queue,
		Timeout:     time.Second,
	})
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store, queue
}

func TestMediaUploadImage(t *testing.T) {
	svc, store, queue := newMediaFixture(t)
	actor := teacherActor("org-1")

	res, err := svc.Upload(context.Background(), actor, "Fotografía Puente.PNG", bytes.NewReader(pngBytes(t, 64, 32)))
	require.NoError(t, err)
	assert.Equal(t, "u1/1700000000000_fotografia-puente.png", res.Path)
	assert.Equal(t, models.MediaImage, res.Item.Kind)
	assert.Equal(t, "http://localhost:8080/media/u1/1700000000000_fotografia-puente.png", res.Item.URL)
	assert.Equal(t, "Fotografía Puente.PNG", res.Item.Name)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, res.Path, queue.jobs[0].Payload.Path)

	rc, err := store.Open(context.Background(), res.Path)
	require.NoError(t, err)
	_ = rc.Close()

	_, err = svc.Upload(context.Background(), actor, "Fotografía Puente.PNG", bytes.NewReader(pngBytes(t, 8, 8)))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestMediaUploadRejections(t *testing.T) {
	svc, _, queue := newMediaFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, models.Actor{}, "a.png", bytes.NewReader(pngBytes(t, 4, 4)))
	assert.True(t, errors.Is(err, appErrors.ErrAuthRequired))

	_, err = svc.Upload(ctx, teacherActor("o"), "notes.txt", strings.NewReader("just some text"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Upload(ctx, teacherActor("o"), "big.png", bytes.NewReader(make([]byte, 65<<10)))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Upload(ctx, teacherActor("o"), "empty.png", bytes.NewReader(nil))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, queue.jobs)
}

func TestMediaUploadSurvivesPreviewQueueFull(t *testing.T) {
	svc, _, queue := newMediaFixture(t)
	queue.err = jobs.ErrQueueFull

	res, err := svc.Upload(context.Background(), teacherActor("o"), "a.png", bytes.NewReader(pngBytes(t, 4, 4)))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Item.URL)
}

func TestMediaSignedLinks(t *testing.T) {
	svc, _, _ := newMediaFixture(t)
	ctx := context.Background()
	actor := teacherActor("o")

	res, err := svc.Upload(ctx, actor, "a.png", bytes.NewReader(pngBytes(t, 4, 4)))
	require.NoError(t, err)

	_, _, err = svc.SignURL(actor, "someone-else/file.png")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	token, expiresAt, err := svc.SignURL(actor, res.Path)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	rc, contentType, err := svc.OpenSigned(ctx, res.Path, token)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", contentType)

	_, _, err = svc.OpenSigned(ctx, "u1/other.png", token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, _, err = svc.Open(ctx, "u1/missing.png")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestPreviewGeneratorScalesDown(t *testing.T) {
	svc, store, queue := newMediaFixture(t)
	ctx := context.Background()

	res, err := svc.Upload(ctx, teacherActor("o"), "wide.png", bytes.NewReader(pngBytes(t, 200, 100)))
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	gen := NewPreviewGenerator(store, 50, nil)
	require.NoError(t, gen.Handle(ctx, queue.jobs[0]))
	require.NoError(t, gen.Generate(ctx, res.Path))

	rc, err := store.Open(ctx, res.Path+PreviewSuffix)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestUploaderForFeedsMediaList(t *testing.T) {
	svc, _, _ := newMediaFixture(t)
	list := media.NewList(svc.UploaderFor(teacherActor("o")), models.MediaList{{Kind: models.MediaImage, Name: "old", URL: "http://old"}})

	err := list.UploadAt(context.Background(), 0, "nuevo.png", bytes.NewReader(pngBytes(t, 4, 4)))
	require.NoError(t, err)
	assert.Contains(t, list.Items()[0].URL, "_nuevo.png")

	err = list.UploadAt(context.Background(), 0, "bad.txt", strings.NewReader("text"))
	require.Error(t, err)
	assert.Contains(t, list.Items()[0].URL, "_nuevo.png")
	status, _ := list.Status(0)
	assert.Error(t, status.Err)
}
