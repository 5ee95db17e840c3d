package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// MediaKind enumerates attachment kinds.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaLink  MediaKind = "link"
)

// Valid reports whether the kind is one of the known attachment kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaLink:
		return true
	}
	return false
}

// MediaItem is a reference or evidence attachment. Uploaded items carry the public URL issued by
// the blob store; linked items carry the URL exactly as the user typed it.
type MediaItem struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
	Name string    `json:"name"`
}

// MediaList is an ordered list of attachments persisted as a JSONB column.
type MediaList []MediaItem

// Value marshals the list for JSONB storage. A nil list is stored as an empty array.
func (l MediaList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal([]MediaItem(l))
	if err != nil {
		return nil, fmt.Errorf("marshal media list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the list.
func (l *MediaList) Scan(value interface{}) error {
	if value == nil {
		*l = MediaList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MediaList", value)
	}
	items := make([]MediaItem, 0)
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("unmarshal media list: %w", err)
	}
	*l = items
	return nil
}

// MediaKinds is a set of allowed upload kinds persisted as a text[] column.
type MediaKinds []MediaKind

// Has reports whether kind is allowed.
func (k MediaKinds) Has(kind MediaKind) bool {
	for _, candidate := range k {
		if candidate == kind {
			return true
		}
	}
	return false
}

// Value stores the kinds as a postgres text array.
func (k MediaKinds) Value() (driver.Value, error) {
	raw := make(pq.StringArray, len(k))
	for i, kind := range k {
		raw[i] = string(kind)
	}
	return raw.Value()
}

// Scan reads a postgres text array.
func (k *MediaKinds) Scan(value interface{}) error {
	var raw pq.StringArray
	if err := raw.Scan(value); err != nil {
		return fmt.Errorf("scan media kinds: %w", err)
	}
	kinds := make(MediaKinds, len(raw))
	for i, s := range raw {
		kinds[i] = MediaKind(s)
	}
	*k = kinds
	return nil
}
