// Package progress tracks a learner's position through an activity player.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/localstore"
)

// MaterialsKey is the key of the synthetic first step.
const MaterialsKey = "materials"

const materialsUploadCap = 3

// Step is one screen of the player.
type Step struct {
	Key          string            `json:"key"`
	Materials    bool              `json:"materials"`
	Text         string            `json:"text"`
	Items        []string          `json:"items,omitempty"`
	Media        models.MediaList  `json:"media"`
	AllowUploads bool              `json:"allow_uploads"`
	UploadKinds  models.MediaKinds `json:"upload_kinds"`
	MaxUploads   int               `json:"max_uploads"`
}

// Steps derives the player steps: a materials step followed by one step per section.
func Steps(act models.Activity) []Step {
	media := act.MaterialsMedia
	if len(media) == 0 && len(act.Sections) > 0 {
		media = act.Sections[0].Media
	}
	steps := make([]Step, 0, len(act.Sections)+1)
	steps = append(steps, Step{
		Key:          MaterialsKey,
		Materials:    true,
		Text:         act.Objective,
		Items:        append([]string(nil), act.Materials...),
		Media:        media,
		AllowUploads: true,
		UploadKinds:  models.MediaKinds{models.MediaImage, models.MediaVideo, models.MediaLink},
		MaxUploads:   materialsUploadCap,
	})
	for i, s := range act.Sections {
		key := s.Name
		if key == "" {
			key = fmt.Sprintf("s%d", i)
		}
		steps = append(steps, Step{
			Key:          key,
			Text:         s.Text,
			Media:        s.Media,
			AllowUploads: s.UploadsAllowed(),
			UploadKinds:  s.Kinds(),
			MaxUploads:   s.UploadCap(),
		})
	}
	return steps
}

// EventType names a progress transition.
type EventType string

const (
	GoTo       EventType = "goto"
	Next       EventType = "next"
	Prev       EventType = "prev"
	MarkDone   EventType = "mark_done"
	AddUpload  EventType = "add_upload"
	SetUploads EventType = "set_uploads"
	ResetAll   EventType = "reset"
)

// Event is one transition. Index is read by GoTo; Key and Item by AddUpload; Key and Items by
// SetUploads.
type Event struct {
	Type  EventType          `json:"type"`
	Index int                `json:"index,omitempty"`
	Key   string             `json:"key,omitempty"`
	Item  *models.MediaItem  `json:"item,omitempty"`
	Items []models.MediaItem `json:"items,omitempty"`
}

// Apply returns the progress that results from ev over steps. The input is never mutated.
// AddUpload does not enforce the step cap; callers gate it with CanAddUpload.
func Apply(steps []Step, p models.Progress, ev Event) (models.Progress, error) {
	next := clone(p)
	switch ev.Type {
	case GoTo:
		next.Current = clamp(ev.Index, len(steps))
	case Next:
		next.Current = clamp(p.Current+1, len(steps))
	case Prev:
		next.Current = clamp(p.Current-1, len(steps))
	case MarkDone:
		if len(steps) == 0 {
			return p, appErrors.Clone(appErrors.ErrValidation, "activity has no steps")
		}
		next.Done[steps[clamp(p.Current, len(steps))].Key] = true
	case AddUpload:
		if ev.Item == nil || ev.Key == "" {
			return p, appErrors.Clone(appErrors.ErrValidation, "upload requires a step key and an item")
		}
		if !ev.Item.Kind.Valid() {
			return p, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown media kind %q", ev.Item.Kind))
		}
		next.Uploads[ev.Key] = append(next.Uploads[ev.Key], *ev.Item)
	case SetUploads:
		if ev.Key == "" {
			return p, appErrors.Clone(appErrors.ErrValidation, "step key required")
		}
		next.Uploads[ev.Key] = append([]models.MediaItem{}, ev.Items...)
	case ResetAll:
		return models.NewProgress(), nil
	default:
		return p, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown progress event %q", ev.Type))
	}
	return next, nil
}

func clamp(n, stepCount int) int {
	if stepCount <= 0 || n < 0 {
		return 0
	}
	if n > stepCount-1 {
		return stepCount - 1
	}
	return n
}

func clone(p models.Progress) models.Progress {
	out := models.Progress{Current: p.Current, Done: make(map[string]bool, len(p.Done)), Uploads: make(map[string][]models.MediaItem, len(p.Uploads))}
	for k, v := range p.Done {
		out.Done[k] = v
	}
	for k, v := range p.Uploads {
		out.Uploads[k] = append([]models.MediaItem(nil), v...)
	}
	return out
}

// Percent is round((current+1)/steps*100).
func Percent(steps []Step, p models.Progress) int {
	if len(steps) == 0 {
		return 0
	}
	return int(math.Round(float64(p.Current+1) / float64(len(steps)) * 100))
}

// CanAddUpload reports whether the step identified by key accepts another upload of kind.
func CanAddUpload(steps []Step, p models.Progress, key string, kind models.MediaKind) bool {
	for _, s := range steps {
		if s.Key != key {
			continue
		}
		return s.AllowUploads && s.UploadKinds.Has(kind) && len(p.Uploads[key]) < s.MaxUploads
	}
	return false
}

// Machine owns the progress of one activity and persists it after every transition.
type Machine struct {
	mu     sync.Mutex
	store  localstore.Store
	key    string
	steps  []Step
	state  models.Progress
	logger *zap.Logger
}

// Open restores the progress for act. Unreadable records start over.
func Open(ctx context.Context, store localstore.Store, act models.Activity, logger *zap.Logger) (*Machine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{store: store, key: localstore.ProgressKey(act.ID), steps: Steps(act), logger: logger}
	raw, ok, err := store.Get(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	m.state = models.NewProgress()
	if ok {
		var stored models.Progress
		if err := json.Unmarshal(raw, &stored); err != nil {
			logger.Warn("discarding unreadable progress", zap.String("key", m.key), zap.Error(err))
		} else {
			m.state = normalize(stored)
		}
	}
	return m, nil
}

func normalize(p models.Progress) models.Progress {
	if p.Done == nil {
		p.Done = map[string]bool{}
	}
	if p.Uploads == nil {
		p.Uploads = map[string][]models.MediaItem{}
	}
	if p.Current < 0 {
		p.Current = 0
	}
	return p
}

// Key is the store key of this progress record.
func (m *Machine) Key() string { return m.key }

// Steps returns the player steps.
func (m *Machine) Steps() []Step { return m.steps }

// State returns a copy of the current progress.
func (m *Machine) State() models.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.state)
}

// Current returns the step the learner is on.
func (m *Machine) Current() (Step, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.steps) == 0 {
		return Step{}, false
	}
	return m.steps[clamp(m.state.Current, len(m.steps))], true
}

// Percent reports completion of the current position.
func (m *Machine) Percent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Percent(m.steps, m.state)
}

// CanAddUpload checks the step cap for key.
func (m *Machine) CanAddUpload(key string, kind models.MediaKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CanAddUpload(m.steps, m.state, key, kind)
}

// Dispatch applies ev, persists the result and commits it.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := Apply(m.steps, m.state, ev)
	if err != nil {
		return clone(m.state), err
	}
	if err := localstore.SetJSON(ctx, m.store, m.key, next); err != nil {
		return clone(m.state), fmt.Errorf("persist progress: %w", err)
	}
	m.state = next
	return clone(next), nil
}
