// Package media manages ordered attachment lists whose items upload independently.
package media

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Status is the per-item upload state.
type Status struct {
	Busy bool
	Err  error
}

type entry struct {
	id     uint64
	item   models.MediaItem
	status Status
}

// List is an ordered list of media items. Each item carries its own status, so uploads on
// different indices never share a busy flag or an error.
type List struct {
	mu       sync.Mutex
	uploader Uploader
	entries  []*entry
	nextID   uint64
}

// NewList seeds a list with items.
func NewList(uploader Uploader, items models.MediaList) *List {
	l := &List{uploader: uploader}
	for _, item := range items {
		l.appendLocked(item)
	}
	return l
}

func (l *List) appendLocked(item models.MediaItem) {
	l.nextID++
	l.entries = append(l.entries, &entry{id: l.nextID, item: item})
}

// Items returns a copy of the items in order.
func (l *List) Items() models.MediaList {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(models.MediaList, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.item
	}
	return out
}

// Status returns the status of the item at i.
func (l *List) Status(i int) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkIndex(i); err != nil {
		return Status{}, err
	}
	return l.entries[i].status, nil
}

// Len returns the number of items.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Add appends an empty item of kind, defaulting to image.
func (l *List) Add(kind models.MediaKind) (int, error) {
	if kind == "" {
		kind = models.MediaImage
	}
	if !kind.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown media kind %q", kind))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(models.MediaItem{Kind: kind})
	return len(l.entries) - 1, nil
}

// Update replaces the item at i. A link's URL is kept exactly as given.
func (l *List) Update(i int, item models.MediaItem) error {
	if !item.Kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown media kind %q", item.Kind))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkIndex(i); err != nil {
		return err
	}
	if l.entries[i].status.Busy {
		return appErrors.Clone(appErrors.ErrConflict, "item is uploading")
	}
	l.entries[i].item = item
	return nil
}

// Remove deletes the item at i; later items shift down.
func (l *List) Remove(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkIndex(i); err != nil {
		return err
	}
	if l.entries[i].status.Busy {
		return appErrors.Clone(appErrors.ErrConflict, "item is uploading")
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return nil
}

// UploadAt uploads a file into the item at i. On success the item gets the issued URL and the
// file name; on failure the item keeps its previous URL and records the error in its own status.
// Link items never upload.
func (l *List) UploadAt(ctx context.Context, i int, filename string, r io.Reader) error {
	l.mu.Lock()
	if err := l.checkIndex(i); err != nil {
		l.mu.Unlock()
		return err
	}
	target := l.entries[i]
	if target.item.Kind == models.MediaLink {
		l.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, "link items take a URL, not a file")
	}
	if target.status.Busy {
		l.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "item is already uploading")
	}
	if l.uploader == nil {
		l.mu.Unlock()
		return appErrors.Clone(appErrors.ErrAuthRequired, "sign in to upload")
	}
	target.status = Status{Busy: true}
	l.mu.Unlock()

	url, err := l.uploader.Upload(ctx, filename, r)

	l.mu.Lock()
	defer l.mu.Unlock()
	target.status = Status{Err: err}
	if err != nil {
		return err
	}
	target.item.URL = url
	target.item.Name = filename
	return nil
}

func (l *List) checkIndex(i int) error {
	if i < 0 || i >= len(l.entries) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("media index %d out of range", i))
	}
	return nil
}
