package session

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
)

// Aggregator loads the landing aggregate for an actor.
type Aggregator interface {
	Load(ctx context.Context, actor models.Actor) (*models.Landing, error)
}

// Loader runs the landing load at most once per session identity and never overlaps two loads.
// Results that arrive after the session changed are discarded.
type Loader struct {
	sessions *Context
	agg      Aggregator
	logger   *zap.Logger

	running atomic.Bool
	mu      sync.Mutex
	lastKey string
	loaded  bool
	result  *models.Landing
}

// NewLoader binds a loader to a session context.
func NewLoader(sessions *Context, agg Aggregator, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{sessions: sessions, agg: agg, logger: logger}
}

// Trigger loads the aggregate for the current session unless it was already loaded for the same
// identity, a load is running, or the profile is still resolving. It reports whether a result was
// stored.
func (l *Loader) Trigger(ctx context.Context) bool {
	snap := l.sessions.Snapshot()
	if snap.Loading {
		return false
	}
	key := snap.Session.Key()

	l.mu.Lock()
	seen := l.loaded && l.lastKey == key
	l.mu.Unlock()
	if seen {
		return false
	}
	if !l.running.CompareAndSwap(false, true) {
		return false
	}
	defer l.running.Store(false)

	landing, err := l.agg.Load(ctx, snap.Actor())
	if err != nil {
		l.logger.Warn("landing load failed", zap.String("session", key), zap.Error(err))
		return false
	}
	if l.sessions.Snapshot().Session.Key() != key {
		l.logger.Debug("discarding landing for stale session", zap.String("session", key))
		return false
	}

	l.mu.Lock()
	l.lastKey = key
	l.loaded = true
	l.result = landing
	l.mu.Unlock()
	return true
}

// Landing returns the last stored aggregate, or nil before the first load.
func (l *Loader) Landing() *models.Landing {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// Attach triggers a load after every snapshot change until the returned function is called.
func (l *Loader) Attach(ctx context.Context) func() {
	return l.sessions.Subscribe(func(s Snapshot) {
		if s.Loading {
			return
		}
		go l.Trigger(ctx)
	})
}
