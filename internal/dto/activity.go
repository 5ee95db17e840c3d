package dto

import (
	"time"

	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/permission"
)

// PublishActivityRequest applies a visibility transition.
type PublishActivityRequest struct {
	Visibility    models.Visibility     `json:"visibility" validate:"required,oneof=public org private market"`
	ListingStatus *models.ListingStatus `json:"listing_status" validate:"omitempty,oneof=draft active archived"`
}

// MeResponse describes the caller.
type MeResponse struct {
	Session      *models.Session         `json:"session"`
	Profile      *models.Profile         `json:"profile"`
	Capabilities permission.Capabilities `json:"capabilities"`
}

// MediaUploadResponse is returned after a successful upload.
type MediaUploadResponse struct {
	Item models.MediaItem `json:"item"`
	Path string           `json:"path"`
}

// SignedMediaResponse is a time-limited link to a stored object.
type SignedMediaResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
