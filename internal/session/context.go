// Package session keeps the signed-in identity and its resolved profile for a long-lived client.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

// Resolver turns an authenticated identity into its profile.
type Resolver interface {
	Resolve(ctx context.Context, s models.Session) (*models.Profile, error)
}

// Snapshot is an immutable view of the context. A new value replaces the old one on every change.
type Snapshot struct {
	Session *models.Session
	Profile *models.Profile
	Loading bool
}

// Actor converts the snapshot into the caller of a gateway operation.
func (s Snapshot) Actor() models.Actor {
	return models.Actor{Session: s.Session, Profile: s.Profile}
}

// Context holds the current snapshot and allows at most one profile resolution in flight. A
// resolution requested while another runs is dropped, not queued.
type Context struct {
	resolver Resolver
	logger   *zap.Logger
	timeout  time.Duration

	snap     atomic.Pointer[Snapshot]
	inflight atomic.Bool

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New constructs an empty, signed-out context.
func New(resolver Resolver, logger *zap.Logger, timeout time.Duration) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Context{resolver: resolver, logger: logger, timeout: timeout, subs: map[int]func(Snapshot){}}
	c.snap.Store(&Snapshot{})
	return c
}

// Snapshot returns the current view.
func (c *Context) Snapshot() Snapshot {
	return *c.snap.Load()
}

// Subscribe registers fn for every published snapshot and returns a function removing it.
func (c *Context) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Context) publish(s Snapshot) {
	c.snap.Store(&s)
	c.subMu.Lock()
	listeners := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.subMu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// SetSession records a login, token refresh or logout. Clearing the session clears the profile
// immediately without a remote call; setting one resolves its profile.
func (c *Context) SetSession(ctx context.Context, s *models.Session) Snapshot {
	if s == nil {
		c.publish(Snapshot{})
		return c.Snapshot()
	}
	session := *s
	prev := c.Snapshot()
	next := Snapshot{Session: &session, Loading: true}
	if prev.Session.Key() == session.Key() {
		next.Profile = prev.Profile
	}
	c.publish(next)
	c.resolve(ctx)
	return c.Snapshot()
}

// Refresh re-resolves the profile of the current session. It reports false when the request was
// dropped because another resolution is running.
func (c *Context) Refresh(ctx context.Context) bool {
	if c.Snapshot().Session == nil {
		return true
	}
	return c.resolve(ctx)
}

func (c *Context) resolve(ctx context.Context) bool {
	if !c.inflight.CompareAndSwap(false, true) {
		return false
	}
	defer c.inflight.Store(false)
	for {
		target := c.Snapshot().Session
		if target == nil {
			return true
		}
		profile := c.lookup(ctx, *target)

		current := c.Snapshot()
		if current.Session.Key() == target.Key() {
			c.publish(Snapshot{Session: current.Session, Profile: profile, Loading: false})
			if c.Snapshot().Session.Key() == target.Key() {
				return true
			}
			continue
		}
		// the session changed mid-flight; discard and resolve the newest one
		c.logger.Debug("discarding stale profile resolution", zap.String("user_id", target.UserID))
	}
}

func (c *Context) lookup(ctx context.Context, s models.Session) *models.Profile {
	if c.resolver == nil {
		return nil
	}
	var profile *models.Profile
	err := appErrors.WithTimeout(ctx, c.timeout, func(ctx context.Context) error {
		p, err := c.resolver.Resolve(ctx, s)
		profile = p
		return err
	})
	if err != nil {
		c.logger.Warn("profile resolution failed", zap.String("user_id", s.UserID), zap.Error(err))
		return nil
	}
	return profile
}
