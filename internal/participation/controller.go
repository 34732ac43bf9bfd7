// Package participation drives the join/leave state of one user for one
// activity. Local state is a cache of the backend's isUserParticipating flag.
package participation

import (
	"context"
	"fmt"
	"sync"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/scope"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

type Backend interface {
	Join(ctx context.Context, token string, eventID int64) (domain.JoinResult, error)
	Leave(ctx context.Context, token string, eventID int64) error
}

// Guard serializes mutations for one key across replicas. ok is false when
// another holder has the key.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

type Action string

const (
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

// Outcome describes a Join or Leave call. Started is false when the call was
// ignored and nothing was sent.
type Outcome struct {
	Started bool
	Result  domain.JoinResult
}

type Controller struct {
	eventID int64
	backend Backend
	session session.Provider
	guard   Guard
	scope   *scope.Scope
	refetch func(ctx context.Context) error

	mu    sync.Mutex
	state domain.ParticipationState
	err   error
}

type Option func(*Controller)

func WithGuard(g Guard) Option {
	return func(c *Controller) { c.guard = g }
}

func WithScope(sc *scope.Scope) Option {
	return func(c *Controller) { c.scope = sc }
}

// WithRefetch sets the call made after every successful mutation so the
// server's view of the event replaces the local one.
func WithRefetch(fn func(ctx context.Context) error) Option {
	return func(c *Controller) { c.refetch = fn }
}

func NewController(eventID int64, backend Backend, sess session.Provider, opts ...Option) *Controller {
	c := &Controller{
		eventID: eventID,
		backend: backend,
		session: sess,
		state:   domain.StateNotJoined,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() domain.ParticipationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the failure of the last mutation, cleared when the next one starts.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reconcile mirrors the backend's isUserParticipating flag. It is ignored
// while a mutation is in flight; that mutation's own refetch settles it.
func (c *Controller) Reconcile(participating bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.InFlight() {
		return
	}
	c.state = domain.StateFor(participating)
}

// Join is ignored unless the state is NotJoined.
func (c *Controller) Join(ctx context.Context) (Outcome, error) {
	return c.mutate(ctx, ActionJoin)
}

// Leave is ignored unless the state is Joined.
func (c *Controller) Leave(ctx context.Context) (Outcome, error) {
	return c.mutate(ctx, ActionLeave)
}

func (c *Controller) mutate(ctx context.Context, action Action) (Outcome, error) {
	from, pending, to := domain.StateNotJoined, domain.StateJoining, domain.StateJoined
	if action == ActionLeave {
		from, pending, to = domain.StateJoined, domain.StateLeaving, domain.StateNotJoined
	}

	c.mu.Lock()
	if c.state != from {
		c.mu.Unlock()
		return Outcome{}, nil
	}
	c.state = pending
	c.err = nil
	c.mu.Unlock()

	release, ok := c.acquire(ctx)
	if !ok {
		c.mu.Lock()
		if c.state == pending {
			c.state = from
		}
		c.mu.Unlock()
		return Outcome{}, nil
	}
	defer release()

	var (
		result domain.JoinResult
		err    error
	)
	token := c.session.BearerToken()
	if action == ActionJoin {
		result, err = c.backend.Join(ctx, token, c.eventID)
	} else {
		err = c.backend.Leave(ctx, token, c.eventID)
	}

	if c.scope.Closed() {
		return Outcome{Started: true, Result: result}, domain.ErrViewClosed
	}

	c.mu.Lock()
	if err != nil {
		c.state = from
		c.err = err
		c.mu.Unlock()
		return Outcome{Started: true}, err
	}
	c.state = to
	c.mu.Unlock()

	if c.refetch != nil {
		// The view records a failed refetch itself; the mutation stands.
		_ = c.refetch(ctx)
	}
	return Outcome{Started: true, Result: result}, nil
}

func (c *Controller) acquire(ctx context.Context) (func(), bool) {
	noop := func() {}
	if c.guard == nil {
		return noop, true
	}

	uid, _ := c.session.UserID()
	key := fmt.Sprintf("participation:%d:%d", uid, c.eventID)

	release, ok, err := c.guard.Acquire(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("participation_guard_unavailable")
		return noop, true
	}
	if !ok {
		return noop, false
	}
	if release == nil {
		release = noop
	}
	return release, true
}
