package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/draft"
	"github.com/noah-isme/ingenia-api/internal/models"
	"github.com/noah-isme/ingenia-api/internal/progress"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
	"github.com/noah-isme/ingenia-api/pkg/localstore"
)

// StoreFactory returns the state store namespace of one user.
type StoreFactory func(userID string) localstore.Store

type activityResolver interface {
	Resolve(ctx context.Context, id string) (*models.Activity, error)
}

// ProgressView is the learner's position in an activity together with its step layout.
type ProgressView struct {
	Key      string          `json:"key"`
	Steps    []progress.Step `json:"steps"`
	Progress models.Progress `json:"progress"`
	Percent  int             `json:"percent"`
}

// DraftSaveResult reports the remote id of a saved draft.
type DraftSaveResult struct {
	RemoteID string      `json:"remote_id"`
	State    draft.State `json:"state"`
}

// StateService keeps the authoring draft and the learner progress of each user on the server.
// Operations for the same user are serialized.
type StateService struct {
	stores     StoreFactory
	activities *ActivityService
	resolver   activityResolver
	metrics    *MetricsService
	logger     *zap.Logger

	locks sync.Map
}

// NewStateService constructs the service.
func NewStateService(stores StoreFactory, activities *ActivityService, resolver activityResolver, metrics *MetricsService, logger *zap.Logger) *StateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateService{stores: stores, activities: activities, resolver: resolver, metrics: metrics, logger: logger}
}

func (s *StateService) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *StateService) draftMachine(ctx context.Context, actor models.Actor) (*draft.Machine, error) {
	var gateway draft.Gateway
	if s.activities != nil {
		gateway = s.activities.For(actor)
	}
	machine, err := draft.Load(ctx, s.stores(actor.UserID()), gateway, s.logger)
	if err != nil {
		return nil, appErrors.Remote(err, "failed to load draft")
	}
	return machine, nil
}

func (s *StateService) withDraft(ctx context.Context, actor models.Actor, fn func(*draft.Machine) error) error {
	if !actor.Authenticated() {
		return appErrors.Clone(appErrors.ErrAuthRequired, "sign in to keep a draft")
	}
	defer s.lock(actor.UserID())()
	machine, err := s.draftMachine(ctx, actor)
	if err != nil {
		return err
	}
	return fn(machine)
}

// Draft returns the stored draft, starting a fresh one when none exists.
func (s *StateService) Draft(ctx context.Context, actor models.Actor) (draft.State, error) {
	var state draft.State
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		state = m.State()
		return nil
	})
	return state, err
}

// DispatchDraft applies one edit to the draft.
func (s *StateService) DispatchDraft(ctx context.Context, actor models.Actor, ev draft.Event) (draft.State, error) {
	var state draft.State
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		if ev.Type == draft.SetRemoteID {
			return appErrors.Clone(appErrors.ErrValidation, "remote id is assigned by saving")
		}
		next, err := m.Dispatch(ctx, ev)
		state = next
		return err
	})
	s.metrics.RecordStateEvent("draft", string(ev.Type), err)
	return state, err
}

// ResetDraft discards the draft and its remote link.
func (s *StateService) ResetDraft(ctx context.Context, actor models.Actor) (draft.State, error) {
	var state draft.State
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		next, err := m.Reset(ctx)
		state = next
		return err
	})
	return state, err
}

// SaveDraft creates or updates the remote copy of the draft.
func (s *StateService) SaveDraft(ctx context.Context, actor models.Actor) (*DraftSaveResult, error) {
	var res *DraftSaveResult
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		id, err := m.SaveRemote(ctx)
		if err != nil {
			return err
		}
		res = &DraftSaveResult{RemoteID: id, State: m.State()}
		return nil
	})
	return res, err
}

// PublishDraft saves the draft and applies its publish transition.
func (s *StateService) PublishDraft(ctx context.Context, actor models.Actor) (*DraftSaveResult, error) {
	var res *DraftSaveResult
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		id, err := m.Publish(ctx)
		if err != nil {
			return err
		}
		res = &DraftSaveResult{RemoteID: id, State: m.State()}
		return nil
	})
	return res, err
}

// ImportDraft replaces the draft with an exported document.
func (s *StateService) ImportDraft(ctx context.Context, actor models.Actor, data []byte) (draft.State, error) {
	var state draft.State
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		next, err := m.Import(ctx, data)
		state = next
		return err
	})
	return state, err
}

// ExportDraft renders the draft as a downloadable document.
func (s *StateService) ExportDraft(ctx context.Context, actor models.Actor) (*ExportResult, error) {
	var res *ExportResult
	err := s.withDraft(ctx, actor, func(m *draft.Machine) error {
		var err error
		res, err = RenderJSON(m.State().Activity)
		return err
	})
	return res, err
}

func (s *StateService) withProgress(ctx context.Context, actor models.Actor, activityID string, fn func(*progress.Machine) error) error {
	if !actor.Authenticated() {
		return appErrors.Clone(appErrors.ErrAuthRequired, "sign in to keep progress")
	}
	act, err := s.resolver.Resolve(ctx, activityID)
	if err != nil {
		return err
	}
	defer s.lock(actor.UserID())()
	machine, err := progress.Open(ctx, s.stores(actor.UserID()), *act, s.logger)
	if err != nil {
		return appErrors.Remote(err, "failed to load progress")
	}
	return fn(machine)
}

// Progress returns the learner's progress in an activity.
func (s *StateService) Progress(ctx context.Context, actor models.Actor, activityID string) (*ProgressView, error) {
	var view *ProgressView
	err := s.withProgress(ctx, actor, activityID, func(m *progress.Machine) error {
		view = progressView(m)
		return nil
	})
	return view, err
}

// DispatchProgress applies one player event.
func (s *StateService) DispatchProgress(ctx context.Context, actor models.Actor, activityID string, ev progress.Event) (*ProgressView, error) {
	var view *ProgressView
	err := s.withProgress(ctx, actor, activityID, func(m *progress.Machine) error {
		if ev.Type == progress.AddUpload && ev.Item != nil && !m.CanAddUpload(ev.Key, ev.Item.Kind) {
			return appErrors.Clone(appErrors.ErrValidation, "this step does not accept more uploads of that kind")
		}
		if _, err := m.Dispatch(ctx, ev); err != nil {
			return err
		}
		view = progressView(m)
		return nil
	})
	s.metrics.RecordStateEvent("progress", string(ev.Type), err)
	return view, err
}

func progressView(m *progress.Machine) *ProgressView {
	return &ProgressView{Key: m.Key(), Steps: m.Steps(), Progress: m.State(), Percent: m.Percent()}
}
