// Package draft holds the authoring state of an activity. Apply is a pure reducer; Machine wraps
// it with local persistence and the remote save/publish flow.
package draft

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

// State is the draft activity plus the remote id assigned by the first successful create.
type State struct {
	Activity models.Activity `json:"activity"`
	RemoteID *string         `json:"remote_id"`
}

// EventType names a draft transition.
type EventType string

const (
	SetTitle          EventType = "set_title"
	SetObjective      EventType = "set_objective"
	SetMaterials      EventType = "set_materials"
	SetMaterialsMedia EventType = "set_materials_media"
	SetEstMinutes     EventType = "set_est_minutes"
	SetTags           EventType = "set_tags"
	SetGrades         EventType = "set_grades"
	SetSubjects       EventType = "set_subjects"
	SetVisibility     EventType = "set_visibility"
	SetAudience       EventType = "set_audience"
	SetPrice          EventType = "set_price"
	SetListingStatus  EventType = "set_listing_status"
	UpdateSection     EventType = "update_section"
	Replace           EventType = "replace"
	Reset             EventType = "reset"
	SetRemoteID       EventType = "set_remote_id"
)

// SectionPatch updates the non-nil fields of one section.
type SectionPatch struct {
	Name         *string            `json:"name,omitempty"`
	Text         *string            `json:"text,omitempty"`
	Media        *models.MediaList  `json:"media,omitempty"`
	AllowUploads *bool              `json:"allowUploads,omitempty"`
	UploadKinds  *models.MediaKinds `json:"uploadKinds,omitempty"`
	MaxUploads   *int               `json:"maxUploads,omitempty"`
}

// Event is one transition. Only the fields relevant to Type are read.
type Event struct {
	Type     EventType        `json:"type"`
	Text     string           `json:"text,omitempty"`
	List     []string         `json:"list,omitempty"`
	Media    models.MediaList `json:"media,omitempty"`
	Number   *int             `json:"number,omitempty"`
	Price    *float64         `json:"price,omitempty"`
	Index    int              `json:"index,omitempty"`
	Section  *SectionPatch    `json:"section,omitempty"`
	Activity *models.Activity `json:"activity,omitempty"`
	RemoteID *string          `json:"remote_id,omitempty"`
}

func invalid(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}

// Apply returns the state that results from ev. The input state is never mutated.
func Apply(state State, ev Event) (State, error) {
	next := State{Activity: CloneActivity(state.Activity), RemoteID: copyString(state.RemoteID)}
	act := &next.Activity

	switch ev.Type {
	case SetTitle:
		act.Title = ev.Text
	case SetObjective:
		act.Objective = ev.Text
	case SetMaterials:
		act.Materials = cleanList(ev.List, false)
	case SetMaterialsMedia:
		if err := validateMedia(ev.Media); err != nil {
			return state, err
		}
		act.MaterialsMedia = cloneMedia(ev.Media)
	case SetEstMinutes:
		if ev.Number != nil && *ev.Number < 0 {
			return state, invalid("estimated minutes must not be negative")
		}
		act.EstMinutes = copyInt(ev.Number)
	case SetTags:
		act.Tags = cleanList(ev.List, true)
	case SetGrades:
		act.Grades = cleanList(ev.List, true)
	case SetSubjects:
		act.Subjects = cleanList(ev.List, true)
	case SetVisibility:
		v := models.Visibility(ev.Text)
		if !v.Valid() {
			return state, invalid("unknown visibility %q", ev.Text)
		}
		act.Visibility = v
	case SetAudience:
		a := models.Audience(ev.Text)
		if a != models.AudienceBoth && a != models.AudienceStudents && a != models.AudienceTeachers {
			return state, invalid("unknown audience %q", ev.Text)
		}
		act.Audience = a
	case SetPrice:
		if ev.Price != nil && *ev.Price < 0 {
			return state, invalid("price must not be negative")
		}
		act.PriceMXN = copyFloat(ev.Price)
	case SetListingStatus:
		s := models.ListingStatus(ev.Text)
		if s != models.ListingDraft && s != models.ListingActive && s != models.ListingArchived {
			return state, invalid("unknown listing status %q", ev.Text)
		}
		act.ListingStatus = s
	case UpdateSection:
		if ev.Index < 0 || ev.Index >= len(act.Sections) {
			return state, invalid("section %d out of range", ev.Index)
		}
		if ev.Section == nil {
			return state, invalid("section patch required")
		}
		if err := patchSection(&act.Sections[ev.Index], *ev.Section); err != nil {
			return state, err
		}
	case Replace:
		if ev.Activity == nil {
			return state, invalid("activity required")
		}
		next.Activity = CloneActivity(*ev.Activity)
	case Reset:
		id := ev.Text
		if id == "" {
			id = NewPlaceholderID()
		}
		return State{Activity: models.NewDraftActivity(id)}, nil
	case SetRemoteID:
		next.RemoteID = copyString(ev.RemoteID)
	default:
		return state, invalid("unknown draft event %q", ev.Type)
	}
	return next, nil
}

func patchSection(s *models.Section, p SectionPatch) error {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Text != nil {
		s.Text = *p.Text
	}
	if p.Media != nil {
		if err := validateMedia(*p.Media); err != nil {
			return err
		}
		s.Media = cloneMedia(*p.Media)
	}
	if p.AllowUploads != nil {
		s.AllowUploads = copyBool(p.AllowUploads)
	}
	if p.UploadKinds != nil {
		kinds := make(models.MediaKinds, 0, len(*p.UploadKinds))
		for _, k := range *p.UploadKinds {
			if !k.Valid() {
				return invalid("unknown upload kind %q", k)
			}
			if !kinds.Has(k) {
				kinds = append(kinds, k)
			}
		}
		s.UploadKinds = kinds
	}
	if p.MaxUploads != nil {
		if *p.MaxUploads < 0 {
			return invalid("max uploads must not be negative")
		}
		s.MaxUploads = copyInt(p.MaxUploads)
	}
	return nil
}

func validateMedia(items models.MediaList) error {
	for i, item := range items {
		if !item.Kind.Valid() {
			return invalid("media %d has unknown kind %q", i, item.Kind)
		}
	}
	return nil
}

// cleanList trims entries and drops empty ones; dedupe also drops repeats keeping the first.
func cleanList(in []string, dedupe bool) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if dedupe {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}

// NewPlaceholderID returns a local-only id of the form draft-xxxxxx.
func NewPlaceholderID() string {
	return "draft-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// CloneActivity deep-copies a so that later edits never alias the original's slices.
func CloneActivity(a models.Activity) models.Activity {
	out := a
	out.Materials = cloneStrings(a.Materials)
	out.MaterialsMedia = cloneMedia(a.MaterialsMedia)
	out.EstMinutes = copyInt(a.EstMinutes)
	out.Tags = cloneStrings(a.Tags)
	out.Grades = cloneStrings(a.Grades)
	out.Subjects = cloneStrings(a.Subjects)
	out.PriceMXN = copyFloat(a.PriceMXN)
	out.OrgID = copyString(a.OrgID)
	if a.CreatedAt != nil {
		t := *a.CreatedAt
		out.CreatedAt = &t
	}
	if a.Sections != nil {
		out.Sections = make([]models.Section, len(a.Sections))
		for i, s := range a.Sections {
			cs := s
			cs.Media = cloneMedia(s.Media)
			cs.AllowUploads = copyBool(s.AllowUploads)
			cs.MaxUploads = copyInt(s.MaxUploads)
			if s.UploadKinds != nil {
				cs.UploadKinds = append(models.MediaKinds{}, s.UploadKinds...)
			}
			out.Sections[i] = cs
		}
	}
	return out
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	return append(pq.StringArray{}, in...)
}

func cloneMedia(in models.MediaList) models.MediaList {
	if in == nil {
		return nil
	}
	return append(models.MediaList{}, in...)
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
