package participation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend/backendtest"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/scope"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

const (
	eventID = int64(10)
	userID  = int64(1)
)

func newFake(t *testing.T, ev domain.Event) (*backendtest.Server, *backend.ActivityClient) {
	t.Helper()
	srv := backendtest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(userID, "Alva")
	srv.AddEvent(ev)
	return srv, backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
}

// refetcher mirrors what the activity view does after a mutation.
func refetcher(c **Controller, be *backend.ActivityClient, sess session.Provider, got **domain.Event) func(context.Context) error {
	return func(ctx context.Context) error {
		ev, err := be.GetEvent(ctx, sess.BearerToken(), eventID)
		if err != nil {
			return err
		}
		*got = ev
		(*c).Reconcile(ev.IsUserParticipating)
		return nil
	}
}

func TestController_JoinSuccessRefetches(t *testing.T) {
	_, be := newFake(t, domain.Event{ID: eventID, MaxParticipants: 5, CurrentParticipants: 2})
	sess := session.New(userID, "1")

	var (
		c       *Controller
		refetch *domain.Event
	)
	c = NewController(eventID, be, sess, WithRefetch(refetcher(&c, be, sess, &refetch)))

	out, err := c.Join(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Started)
	assert.Equal(t, "Joined", out.Result.Status)
	assert.Equal(t, domain.StateJoined, c.State())

	require.NotNil(t, refetch)
	assert.True(t, refetch.IsUserParticipating)
	assert.Equal(t, 3, refetch.CurrentParticipants)
}

func TestController_JoinWhileJoiningSendsNothing(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	c := NewController(eventID, be, session.New(userID, "1"))

	release := srv.Hold(backendtest.OpJoin)
	done := make(chan error, 1)
	go func() {
		_, err := c.Join(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return srv.Calls(backendtest.OpJoin) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.StateJoining, c.State())
	assert.False(t, c.State().Participating())

	out, err := c.Join(context.Background())
	assert.NoError(t, err)
	assert.False(t, out.Started)

	out, err = c.Leave(context.Background())
	assert.NoError(t, err)
	assert.False(t, out.Started)

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, srv.Calls(backendtest.OpJoin))
	assert.Equal(t, domain.StateJoined, c.State())
}

func TestController_JoinFullEvent(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID, MaxParticipants: 2, CurrentParticipants: 2, IsFull: true})
	c := NewController(eventID, be, session.New(userID, "1"))

	out, err := c.Join(context.Background())
	require.Error(t, err)
	assert.True(t, out.Started)
	assert.Contains(t, err.Error(), "event is full")
	assert.Equal(t, domain.KindRejected, domain.KindOf(err))
	assert.Equal(t, domain.StateNotJoined, c.State())
	assert.Equal(t, err, c.Err())
	assert.Equal(t, 1, srv.Calls(backendtest.OpJoin))
}

func TestController_LeaveFailureReverts(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	c := NewController(eventID, be, session.New(userID, "1"))
	c.Reconcile(true)

	srv.FailNext(backendtest.OpLeave, 500, "")
	_, err := c.Leave(context.Background())
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.Equal(t, domain.StateJoined, c.State())
}

func TestController_JoinThenLeave(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	c := NewController(eventID, be, session.New(userID, "1"))

	_, err := c.Join(context.Background())
	require.NoError(t, err)

	out, err := c.Leave(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Started)
	assert.Equal(t, domain.StateNotJoined, c.State())
	assert.NoError(t, c.Err())
	assert.Zero(t, srv.Event(eventID).CurrentParticipants)
}

func TestController_IgnoredTransitions(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	c := NewController(eventID, be, session.New(userID, "1"))

	out, err := c.Leave(context.Background())
	assert.NoError(t, err)
	assert.False(t, out.Started)

	c.Reconcile(true)
	out, err = c.Join(context.Background())
	assert.NoError(t, err)
	assert.False(t, out.Started)

	assert.Zero(t, srv.Calls(backendtest.OpJoin))
	assert.Zero(t, srv.Calls(backendtest.OpLeave))
}

func TestController_ReconcileIgnoredInFlight(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	c := NewController(eventID, be, session.New(userID, "1"))

	release := srv.Hold(backendtest.OpJoin)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Join(context.Background())
	}()
	require.Eventually(t, func() bool { return srv.Calls(backendtest.OpJoin) == 1 }, time.Second, 5*time.Millisecond)

	c.Reconcile(false)
	assert.Equal(t, domain.StateJoining, c.State())

	release()
	<-done
	assert.Equal(t, domain.StateJoined, c.State())
}

func TestController_ResultAfterTeardownIsDiscarded(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	sc := scope.New()
	refetched := false
	c := NewController(eventID, be, session.New(userID, "1"),
		WithScope(sc),
		WithRefetch(func(context.Context) error { refetched = true; return nil }),
	)

	release := srv.Hold(backendtest.OpJoin)
	done := make(chan error, 1)
	go func() {
		_, err := c.Join(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return srv.Calls(backendtest.OpJoin) == 1 }, time.Second, 5*time.Millisecond)

	sc.Close()
	release()

	assert.ErrorIs(t, <-done, domain.ErrViewClosed)
	assert.Equal(t, domain.StateJoining, c.State())
	assert.False(t, refetched)
}

type stubGuard struct {
	held     map[string]bool
	err      error
	released []string
}

func (g *stubGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	if g.err != nil {
		return nil, false, g.err
	}
	if g.held[key] {
		return nil, false, nil
	}
	return func() { g.released = append(g.released, key) }, true, nil
}

func TestController_GuardHeldElsewhere(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	g := &stubGuard{held: map[string]bool{"participation:1:10": true}}
	c := NewController(eventID, be, session.New(userID, "1"), WithGuard(g))

	out, err := c.Join(context.Background())
	assert.NoError(t, err)
	assert.False(t, out.Started)
	assert.Equal(t, domain.StateNotJoined, c.State())
	assert.Zero(t, srv.Calls(backendtest.OpJoin))
}

func TestController_GuardReleasedAfterMutation(t *testing.T) {
	_, be := newFake(t, domain.Event{ID: eventID})
	g := &stubGuard{held: map[string]bool{}}
	c := NewController(eventID, be, session.New(userID, "1"), WithGuard(g))

	_, err := c.Join(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"participation:1:10"}, g.released)
}

func TestController_GuardErrorFailsOpen(t *testing.T) {
	srv, be := newFake(t, domain.Event{ID: eventID})
	g := &stubGuard{err: errors.New("redis down")}
	c := NewController(eventID, be, session.New(userID, "1"), WithGuard(g))

	out, err := c.Join(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Started)
	assert.Equal(t, 1, srv.Calls(backendtest.OpJoin))
}
