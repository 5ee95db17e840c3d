package models

import (
	"time"

	"github.com/lib/pq"
)

// Visibility controls who can see an activity.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityOrg     Visibility = "org"
	VisibilityPrivate Visibility = "private"
	VisibilityMarket  Visibility = "market"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityOrg, VisibilityPrivate, VisibilityMarket:
		return true
	}
	return false
}

// Unscoped reports whether activities with this visibility are detached from any organization.
func (v Visibility) Unscoped() bool {
	return v == VisibilityPublic || v == VisibilityMarket
}

// Audience describes the intended consumers of an activity.
type Audience string

const (
	AudienceBoth     Audience = "both"
	AudienceStudents Audience = "students"
	AudienceTeachers Audience = "teachers"
)

// ListingStatus is the marketplace state of an activity.
type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingActive   ListingStatus = "active"
	ListingArchived ListingStatus = "archived"
)

// Activity is the authoring unit. Its JSON encoding is the interchange format used for export and
// import, so it must stay the exact shape of the editor's in-memory object.
type Activity struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Objective      string         `db:"objective" json:"objective"`
	Materials      pq.StringArray `db:"materials" json:"materials"`
	MaterialsMedia MediaList      `db:"materials_media" json:"materialsMedia"`
	EstMinutes     *int           `db:"est_minutes" json:"estMinutes"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	Grades         pq.StringArray `db:"grades" json:"grades"`
	Subjects       pq.StringArray `db:"subjects" json:"subjects"`
	Visibility     Visibility     `db:"visibility" json:"visibility"`
	Audience       Audience       `db:"audience" json:"audience"`
	PriceMXN       *float64       `db:"price_mxn" json:"price_mxn"`
	ListingStatus  ListingStatus  `db:"listing_status" json:"listing_status"`
	OwnerID        string         `db:"owner_id" json:"owner_id,omitempty"`
	OrgID          *string        `db:"org_id" json:"org_id"`
	CreatedAt      *time.Time     `db:"created_at" json:"created_at,omitempty"`
	Sections       []Section      `db:"-" json:"sections"`
}

// Section is one ordered step of an activity. Order is re-derived from the slice position on
// every write.
type Section struct {
	ID           string     `db:"id" json:"id,omitempty"`
	ActivityID   string     `db:"activity_id" json:"activity_id,omitempty"`
	Order        int        `db:"order" json:"order,omitempty"`
	Name         string     `db:"name" json:"name"`
	Text         string     `db:"text" json:"text"`
	Media        MediaList  `db:"media" json:"media"`
	AllowUploads *bool      `db:"allow_uploads" json:"allowUploads"`
	UploadKinds  MediaKinds `db:"upload_kinds" json:"uploadKinds"`
	MaxUploads   *int       `db:"max_uploads" json:"maxUploads"`
}

// UploadsAllowed applies the default of true to an unset flag.
func (s Section) UploadsAllowed() bool {
	return s.AllowUploads == nil || *s.AllowUploads
}

// UploadCap applies the default cap of two uploads to an unset limit.
func (s Section) UploadCap() int {
	if s.MaxUploads == nil {
		return DefaultMaxUploads
	}
	return *s.MaxUploads
}

// Kinds applies the default of image and video to an empty kind set.
func (s Section) Kinds() MediaKinds {
	if len(s.UploadKinds) == 0 {
		return MediaKinds{MediaImage, MediaVideo}
	}
	return s.UploadKinds
}

// ActivitySummary is the projection returned by the listing queries.
type ActivitySummary struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Objective     string         `db:"objective" json:"objective"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	Visibility    Visibility     `db:"visibility" json:"visibility"`
	ListingStatus ListingStatus  `db:"listing_status" json:"listing_status"`
	PriceMXN      *float64       `db:"price_mxn" json:"price_mxn"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// DefaultMaxUploads is the upload cap applied when a section does not specify one.
const DefaultMaxUploads = 2

// DefaultEstMinutes is the estimated duration of a freshly created draft.
const DefaultEstMinutes = 30

// CanonicalSteps lists the five wizard steps in order.
var CanonicalSteps = []string{"diseña", "construye", "prueba", "mejora", "comparte"}

// NewDraftActivity returns the local-only activity a fresh editor starts from.
func NewDraftActivity(id string) Activity {
	estMinutes := DefaultEstMinutes
	caps := []int{2, 3, 3, 2, 2}
	sections := make([]Section, len(CanonicalSteps))
	for i, name := range CanonicalSteps {
		allow := true
		maxUploads := caps[i]
		kinds := MediaKinds{MediaImage, MediaVideo}
		if name == "comparte" {
			kinds = append(kinds, MediaLink)
		}
		sections[i] = Section{
			Name:         name,
			Text:         "",
			Media:        MediaList{},
			AllowUploads: &allow,
			UploadKinds:  kinds,
			MaxUploads:   &maxUploads,
		}
	}
	return Activity{
		ID:             id,
		Materials:      pq.StringArray{""},
		MaterialsMedia: MediaList{},
		EstMinutes:     &estMinutes,
		Tags:           pq.StringArray{},
		Grades:         pq.StringArray{},
		Subjects:       pq.StringArray{},
		Visibility:     VisibilityOrg,
		Audience:       AudienceBoth,
		ListingStatus:  ListingDraft,
		Sections:       sections,
	}
}

// ResolveOrgID is the single source of the organization invariant: unscoped visibilities never carry
// an organization, scoped ones take the explicit override or fall back to the owner's organization.
func ResolveOrgID(visibility Visibility, override *string, profileOrg *string) *string {
	if visibility.Unscoped() {
		return nil
	}
	if override != nil && *override != "" {
		v := *override
		return &v
	}
	if profileOrg != nil && *profileOrg != "" {
		v := *profileOrg
		return &v
	}
	return nil
}
