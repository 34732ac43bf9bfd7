package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend/backendtest"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/display"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

func newFake(t *testing.T) (*backendtest.Server, *backend.ActivityClient) {
	t.Helper()
	srv := backendtest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(1, "Alva")
	srv.AddUser(2, "Bo")
	srv.AddEvent(domain.Event{ID: 10, Title: "Padel", MaxParticipants: 4})
	return srv, backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
}

func TestActivityClient_GetEvent(t *testing.T) {
	srv, c := newFake(t)

	ctx := middleware.SetRequestIDForTest(context.Background(), "req-42")
	ev, err := c.GetEvent(ctx, "1", 10)
	require.NoError(t, err)
	assert.Equal(t, "Padel", ev.Title)
	assert.False(t, ev.IsUserParticipating)

	h := srv.LastHeader(backendtest.OpGetEvent)
	assert.Equal(t, "Bearer 1", h.Get("Authorization"))
	assert.Equal(t, "req-42", h.Get("X-Request-Id"))
}

func TestActivityClient_GetEvent_NotFound(t *testing.T) {
	_, c := newFake(t)

	_, err := c.GetEvent(context.Background(), "1", 999)
	require.Error(t, err)

	var ae *domain.ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, domain.KindNotFound, ae.Kind)
	assert.Equal(t, "event not found", ae.Message)
}

func TestActivityClient_JoinAndLeave(t *testing.T) {
	srv, c := newFake(t)
	ctx := context.Background()

	res, err := c.Join(ctx, "1", 10)
	require.NoError(t, err)
	assert.Equal(t, "joined", res.Message)
	assert.Equal(t, "Joined", res.Status)

	ev, err := c.GetEvent(ctx, "1", 10)
	require.NoError(t, err)
	assert.True(t, ev.IsUserParticipating)
	assert.Equal(t, 1, ev.CurrentParticipants)

	_, err = c.Join(ctx, "1", 10)
	assert.Equal(t, domain.KindRejected, domain.KindOf(err))
	assert.EqualError(t, err, "already a participant")

	require.NoError(t, c.Leave(ctx, "1", 10))
	assert.Equal(t, 0, srv.Event(10).CurrentParticipants)
}

func TestActivityClient_JoinFullEvent(t *testing.T) {
	srv, c := newFake(t)
	srv.AddEvent(domain.Event{ID: 11, MaxParticipants: 2, CurrentParticipants: 2, IsFull: true})

	_, err := c.Join(context.Background(), "1", 11)
	require.Error(t, err)
	assert.Equal(t, domain.KindRejected, domain.KindOf(err))
	assert.Contains(t, err.Error(), "event is full")
}

func TestActivityClient_Comments(t *testing.T) {
	srv, c := newFake(t)
	ctx := context.Background()

	created, err := c.CreateComment(ctx, "1", 10, "hello", nil)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "hello", created.Content)
	assert.NotContains(t, srv.LastBody(backendtest.OpCreateComment), "parentId")

	root := created.ID
	_, err = c.CreateComment(ctx, "2", 10, "reply", &root)
	require.NoError(t, err)
	assert.Equal(t, float64(root), srv.LastBody(backendtest.OpCreateComment)["parentId"])

	list, err := c.ListComments(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Content)
	require.Len(t, list[0].Replies, 1)
	assert.Equal(t, "Bo", list[0].Replies[0].AuthorName)
	assert.WithinDuration(t, time.Now(), list[0].CreatedAt.Time, time.Minute)

	err = c.DeleteComment(ctx, "2", 10, root)
	assert.Equal(t, domain.KindRejected, domain.KindOf(err))

	require.NoError(t, c.DeleteComment(ctx, "1", 10, root))
	assert.Empty(t, srv.CommentIDs(10))

	err = c.DeleteComment(ctx, "1", 10, root)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestActivityClient_Unauthorized(t *testing.T) {
	_, c := newFake(t)

	err := c.Leave(context.Background(), "", 10)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestClient_ErrorBodies(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		kind    domain.ErrorKind
	}{
		{name: "message field", status: 400, body: `{"message":"event is full"}`, message: "event is full", kind: domain.KindRejected},
		{name: "error string", status: 409, body: `{"error":"already joined"}`, message: "already joined", kind: domain.KindRejected},
		{name: "error object", status: 422, body: `{"error":{"code":"x","message":"nope"}}`, message: "nope", kind: domain.KindRejected},
		{name: "problem details", status: 400, body: `{"title":"Bad Request","detail":"event has started"}`, message: "event has started", kind: domain.KindRejected},
		{name: "validation problem", status: 400, body: `{"title":"One or more validation errors occurred.","errors":{"Content":["Content is required"]}}`, message: "Content is required", kind: domain.KindRejected},
		{name: "json string", status: 400, body: `"too late"`, message: "too late", kind: domain.KindRejected},
		{name: "plain text", status: 403, body: "forbidden for you", message: "forbidden for you", kind: domain.KindRejected},
		{name: "html page", status: 502, body: "<html>bad gateway</html>", kind: domain.KindTransport},
		{name: "empty", status: 500, body: "", kind: domain.KindTransport},
		{name: "empty conflict", status: 409, body: "", kind: domain.KindRejected},
		{name: "empty not found", status: 404, body: "  ", kind: domain.KindNotFound},
		{name: "unauthorized", status: 401, body: "", kind: domain.KindUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
			err := c.Leave(context.Background(), "1", 1)

			var ae *domain.ActionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.kind, ae.Kind)
			assert.Equal(t, tc.status, ae.Status)
			assert.Equal(t, tc.message, ae.Message)

			var se *backend.StatusError
			require.ErrorAs(t, err, &se)
			if tc.message == "" {
				assert.Equal(t, http.StatusText(tc.status), se.Message)
				assert.Contains(t, err.Error(), http.StatusText(tc.status))
			} else {
				assert.Equal(t, tc.message, se.Message)
			}
		})
	}
}

func TestClient_EmptyErrorBodyShowsLocalizedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
	_, err := c.Join(context.Background(), "1", 1)
	require.Error(t, err)

	sv := display.NewLocalizer(language.Swedish, time.UTC)
	assert.Equal(t, sv.T("error.rejected"), display.ErrorText(sv, err))
	assert.NotEqual(t, "Conflict", display.ErrorText(sv, err))
}

func TestClient_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":5,"title":"Wrapped"}}`))
	}))
	defer srv.Close()

	c := backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
	ev, err := c.GetEvent(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped", ev.Title)
}

func TestClient_EmptyBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := backend.NewActivityClient(backend.NewClient(srv.URL, backend.DefaultClientConfig()))
	ctx := context.Background()

	res, err := c.Join(ctx, "1", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Message)

	created, err := c.CreateComment(ctx, "1", 1, "hi", nil)
	require.NoError(t, err)
	assert.Nil(t, created)

	list, err := c.ListComments(ctx, "1", 1)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = c.GetEvent(ctx, "1", 1)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.True(t, errors.Is(err, backend.ErrBadResponse))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := backend.NewActivityClient(backend.NewClient(srv.URL, backend.ClientConfig{ReadTimeout: 50 * time.Millisecond}))
	_, err := c.GetEvent(context.Background(), "", 1)

	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.True(t, errors.Is(err, backend.ErrTimeout))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := backend.NewActivityClient(backend.NewClient(url, backend.DefaultClientConfig()))
	err := c.Leave(context.Background(), "1", 1)

	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
	assert.Error(t, c.Ping(context.Background()))
}
