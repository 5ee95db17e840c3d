package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type uploaderMock struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
	gate  chan struct{}
}

func (u *uploaderMock) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	if u.gate != nil {
		<-u.gate
	}
	_, _ = io.Copy(io.Discard, r)
	u.mu.Lock()
	u.calls = append(u.calls, filename)
	u.mu.Unlock()
	if err := u.fail[filename]; err != nil {
		return "", err
	}
	return "https://cdn.example.com/u1/" + filename, nil
}

func seedItems() models.MediaList {
	return models.MediaList{
		{Kind: models.MediaImage, URL: "https://old/0.png", Name: "0.png"},
		{Kind: models.MediaImage, URL: "https://old/1.png", Name: "1.png"},
		{Kind: models.MediaVideo, URL: "https://old/2.mp4", Name: "2.mp4"},
	}
}

func TestUploadFailureIsolatedToItem(t *testing.T) {
	up := &uploaderMock{fail: map[string]error{"bad.png": errors.New("network down")}}
	list := NewList(up, seedItems())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	files := []string{"new0.png", "bad.png", "new2.mp4"}
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = list.UploadAt(ctx, i, files[i], strings.NewReader("data"))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.Error(t, errs[1])
	require.NoError(t, errs[2])

	items := list.Items()
	assert.Equal(t, "https://cdn.example.com/u1/new0.png", items[0].URL)
	assert.Equal(t, "https://old/1.png", items[1].URL)
	assert.Equal(t, "https://cdn.example.com/u1/new2.mp4", items[2].URL)

	st0, _ := list.Status(0)
	st1, _ := list.Status(1)
	st2, _ := list.Status(2)
	assert.NoError(t, st0.Err)
	assert.EqualError(t, st1.Err, "network down")
	assert.NoError(t, st2.Err)
	assert.False(t, st1.Busy)
}

func TestUploadFailureLeavesNeighboursUntouched(t *testing.T) {
	up := &uploaderMock{fail: map[string]error{"x.png": errors.New("boom")}}
	list := NewList(up, seedItems())
	before := list.Items()

	err := list.UploadAt(context.Background(), 1, "x.png", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, before, list.Items())

	st0, _ := list.Status(0)
	st2, _ := list.Status(2)
	assert.Equal(t, Status{}, st0)
	assert.Equal(t, Status{}, st2)
}

func TestLinkItemsSkipUpload(t *testing.T) {
	up := &uploaderMock{}
	list := NewList(up, nil)
	i, err := list.Add(models.MediaLink)
	require.NoError(t, err)

	err = list.UploadAt(context.Background(), i, "f.png", strings.NewReader(""))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, up.calls)

	raw := "  https://youtu.be/abc?t=1 "
	require.NoError(t, list.Update(i, models.MediaItem{Kind: models.MediaLink, URL: raw, Name: "video"}))
	assert.Equal(t, raw, list.Items()[0].URL)
}

func TestAddUpdateRemove(t *testing.T) {
	list := NewList(nil, seedItems())
	i, err := list.Add("")
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	assert.Equal(t, models.MediaImage, list.Items()[3].Kind)

	_, err = list.Add("audio")
	assert.Error(t, err)

	require.NoError(t, list.Remove(0))
	assert.Equal(t, 3, list.Len())
	assert.Equal(t, "https://old/1.png", list.Items()[0].URL)

	assert.Error(t, list.Remove(7))
	assert.Error(t, list.Update(-1, models.MediaItem{Kind: models.MediaImage}))

	err = list.UploadAt(context.Background(), 0, "a.png", strings.NewReader(""))
	assert.True(t, errors.Is(err, appErrors.ErrAuthRequired))
}

func TestBusyItemRejectsEdits(t *testing.T) {
	up := &uploaderMock{gate: make(chan struct{})}
	list := NewList(up, seedItems())
	done := make(chan error, 1)
	go func() {
		done <- list.UploadAt(context.Background(), 0, "slow.png", strings.NewReader(""))
	}()

	assert.Eventually(t, func() bool {
		st, _ := list.Status(0)
		return st.Busy
	}, time.Second, 5*time.Millisecond)
	assert.True(t, errors.Is(list.Remove(0), appErrors.ErrConflict))
	require.NoError(t, list.Remove(1))

	close(up.gate)
	require.NoError(t, <-done)
	assert.Equal(t, "https://cdn.example.com/u1/slow.png", list.Items()[0].URL)
}
