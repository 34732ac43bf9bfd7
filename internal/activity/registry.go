package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

const DefaultIdleTTL = 30 * time.Minute

// Registry holds the open views of this replica. A view is only visible to
// the session that opened it.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		views:   make(map[string]*View),
	}
}

// Open creates a view for eventID and loads it. previousViewID, when set, is
// torn down first so a screen that re-opens does not leak its old view. An
// event the backend does not know fails the open.
func (r *Registry) Open(ctx context.Context, eventID int64, sess session.Provider, previousViewID string) (*View, error) {
	if previousViewID != "" {
		_ = r.Close(previousViewID, sess)
	}

	v := newView(uuid.NewString(), eventID, sess, r.deps, r.now())
	if err := v.Refresh(ctx); err != nil {
		v.Close()
		return nil, err
	}

	r.mu.Lock()
	r.views[v.id] = v
	r.mu.Unlock()
	metrics.ViewsOpen.Inc()

	logger.Ctx(ctx).Debug().
		Str("view_id", v.id).
		Int64("event_id", eventID).
		Msg("activity_view_opened")
	return v, nil
}

// Get returns the caller's view and marks it as used. The view adopts sess,
// so a refreshed token takes effect without reopening.
func (r *Registry) Get(id string, sess session.Provider) (*View, error) {
	r.mu.Lock()
	v, ok := r.views[id]
	r.mu.Unlock()
	if !ok || !session.SameUser(v.session, sess) {
		return nil, domain.ErrViewNotFound
	}
	v.touch(r.now(), sess)
	return v, nil
}

func (r *Registry) Close(id string, sess session.Provider) error {
	r.mu.Lock()
	v, ok := r.views[id]
	if !ok || !session.SameUser(v.session, sess) {
		r.mu.Unlock()
		return domain.ErrViewNotFound
	}
	delete(r.views, id)
	r.mu.Unlock()

	v.Close()
	metrics.ViewsOpen.Dec()
	return nil
}

// Sweep tears down views idle for longer than the TTL and returns how many
// it removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*View
	for id, v := range r.views {
		if v.idleSince().Before(cutoff) {
			idle = append(idle, v)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
		metrics.ViewsOpen.Dec()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Log.Info().Int("evicted", n).Msg("activity_views_swept")
			}
		}
	}
}

// CloseAll tears down every view. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*View)
	r.mu.Unlock()

	for _, v := range views {
		v.Close()
		metrics.ViewsOpen.Dec()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
