package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/localstore"
)

// Gateway is the remote record store as seen by one authenticated author.
type Gateway interface {
	Create(ctx context.Context, activity models.Activity) (*models.Activity, error)
	Update(ctx context.Context, id string, activity models.Activity) (*models.Activity, error)
	Publish(ctx context.Context, id string, visibility models.Visibility, status *models.ListingStatus) error
}

// Machine owns one draft. Every accepted event is written to the store before it becomes the
// in-memory state, so a reload always reconstructs the latest state.
type Machine struct {
	mu      sync.Mutex
	store   localstore.Store
	gateway Gateway
	logger  *zap.Logger
	state   State
}

// Load restores the draft from store or starts a fresh one when nothing is stored.
func Load(ctx context.Context, store localstore.Store, gateway Gateway, logger *zap.Logger) (*Machine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{store: store, gateway: gateway, logger: logger}

	var act models.Activity
	found, err := localstore.GetJSON(ctx, store, localstore.DraftKey, &act)
	if err != nil {
		logger.Warn("discarding unreadable draft", zap.Error(err))
		found = false
	}
	if !found {
		act = models.NewDraftActivity(NewPlaceholderID())
	}
	m.state.Activity = act

	raw, ok, err := store.Get(ctx, localstore.DraftRemoteIDKey)
	if err != nil {
		return nil, fmt.Errorf("read draft remote id: %w", err)
	}
	if ok && len(raw) > 0 {
		id := string(raw)
		m.state.RemoteID = &id
	}
	return m, nil
}

// State returns a copy of the current draft.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Activity: CloneActivity(m.state.Activity), RemoteID: copyString(m.state.RemoteID)}
}

// Dispatch applies ev, persists the result and commits it.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(ctx, ev)
}

func (m *Machine) dispatchLocked(ctx context.Context, ev Event) (State, error) {
	next, err := Apply(m.state, ev)
	if err != nil {
		return m.state, err
	}
	if err := m.persist(ctx, next); err != nil {
		return m.state, err
	}
	m.state = next
	return State{Activity: CloneActivity(next.Activity), RemoteID: copyString(next.RemoteID)}, nil
}

func (m *Machine) persist(ctx context.Context, s State) error {
	if err := localstore.SetJSON(ctx, m.store, localstore.DraftKey, s.Activity); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	if s.RemoteID == nil {
		if err := m.store.Remove(ctx, localstore.DraftRemoteIDKey); err != nil {
			return fmt.Errorf("clear draft remote id: %w", err)
		}
		return nil
	}
	if err := m.store.Set(ctx, localstore.DraftRemoteIDKey, []byte(*s.RemoteID)); err != nil {
		return fmt.Errorf("persist draft remote id: %w", err)
	}
	return nil
}

// SaveRemote creates the activity on first save and updates it afterwards. It returns the remote
// id. A failed save leaves the draft untouched.
func (m *Machine) SaveRemote(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRemoteLocked(ctx)
}

func (m *Machine) saveRemoteLocked(ctx context.Context) (string, error) {
	if m.gateway == nil {
		return "", appErrors.Clone(appErrors.ErrAuthRequired, "sign in to save remotely")
	}
	act := CloneActivity(m.state.Activity)
	if m.state.RemoteID != nil {
		id := *m.state.RemoteID
		if _, err := m.gateway.Update(ctx, id, act); err != nil {
			m.logger.Warn("draft update failed", zap.String("remote_id", id), zap.Error(err))
			return "", err
		}
		return id, nil
	}

	created, err := m.gateway.Create(ctx, act)
	if err != nil {
		m.logger.Warn("draft create failed", zap.Error(err))
		return "", err
	}
	id := created.ID
	if _, err := m.dispatchLocked(ctx, Event{Type: SetRemoteID, RemoteID: &id}); err != nil {
		return "", err
	}
	return id, nil
}

// Publish validates the title, saves pending edits and then applies the publish transition.
func (m *Machine) Publish(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(m.state.Activity.Title) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "add a title before publishing")
	}
	id, err := m.saveRemoteLocked(ctx)
	if err != nil {
		return "", err
	}
	visibility, status := PublishTarget(m.state.Activity)
	if err := m.gateway.Publish(ctx, id, visibility, status); err != nil {
		m.logger.Warn("draft publish failed", zap.String("remote_id", id), zap.Error(err))
		return "", err
	}
	return id, nil
}

// PublishTarget derives the publish arguments: visibility defaults to public and listing status is
// only sent for marketplace activities, defaulting to draft.
func PublishTarget(act models.Activity) (models.Visibility, *models.ListingStatus) {
	visibility := act.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityMarket {
		return visibility, nil
	}
	status := act.ListingStatus
	if status == "" {
		status = models.ListingDraft
	}
	return visibility, &status
}

// Reset discards the draft and its remote link and starts a new local-only activity.
func (m *Machine) Reset(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(ctx, Event{Type: Reset})
}

// Export renders the draft in the JSON interchange format.
func (m *Machine) Export() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ExportJSON(m.state.Activity)
}

// Import replaces the draft with a previously exported document. The remote link is kept.
func (m *Machine) Import(ctx context.Context, data []byte) (State, error) {
	act, err := ImportJSON(data)
	if err != nil {
		return m.State(), err
	}
	return m.Dispatch(ctx, Event{Type: Replace, Activity: &act})
}

// ExportJSON encodes an activity as an indented interchange document.
func ExportJSON(act models.Activity) ([]byte, error) {
	data, err := json.MarshalIndent(act, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}
	return data, nil
}

// ImportJSON decodes an interchange document.
func ImportJSON(data []byte) (models.Activity, error) {
	var act models.Activity
	if err := json.Unmarshal(data, &act); err != nil {
		return models.Activity{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity document")
	}
	return act, nil
}

// ExportFilename is the download name for an activity document.
func ExportFilename(act models.Activity, ext string) string {
	name := strings.TrimSpace(act.Title)
	if name == "" {
		name = "actividad"
	}
	return name + "." + ext
}
