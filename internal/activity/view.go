// Package activity composes the participation controller, comment store and
// renderer into one view per opened activity screen.
package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/comments"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/display"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/participation"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/scope"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

const (
	DraftComment = "comment"
	DraftReply   = "reply"
)

type Backend interface {
	GetEvent(ctx context.Context, token string, eventID int64) (*domain.Event, error)
	comments.Backend
	participation.Backend
}

// Deps are shared by every view of a registry.
type Deps struct {
	Backend   Backend
	Guard     participation.Guard
	Telemetry *Telemetry
}

// View is the state behind one open activity detail screen. Closing it
// discards every response still on its way.
type View struct {
	id        string
	eventID   int64
	session   *session.Live
	backend   Backend
	telemetry *Telemetry
	scope     *scope.Scope

	comments      *comments.Store
	replies       *comments.ReplySelector
	participation *participation.Controller
	expansion     *display.Expansion

	mu           sync.Mutex
	event        *domain.Event
	eventErr     error
	eventIssued  uint64
	eventApplied uint64
	composerErr  error
	commentErrs  map[int64]error
	drafts       map[string]*domain.Field[string]
	lastSeen     time.Time
}

func newView(id string, eventID int64, sess session.Provider, deps Deps, now time.Time) *View {
	v := &View{
		id:          id,
		eventID:     eventID,
		session:     session.NewLive(sess),
		backend:     deps.Backend,
		telemetry:   deps.Telemetry,
		scope:       scope.New(),
		replies:     comments.NewReplySelector(),
		expansion:   display.NewExpansion(),
		commentErrs: make(map[int64]error),
		drafts: map[string]*domain.Field[string]{
			DraftComment: {},
			DraftReply:   {},
		},
		lastSeen: now,
	}

	v.comments = comments.NewStore(eventID, deps.Backend, v.session, v.replies, comments.WithScope(v.scope))

	opts := []participation.Option{
		participation.WithScope(v.scope),
		participation.WithRefetch(v.fetchEvent),
	}
	if deps.Guard != nil {
		opts = append(opts, participation.WithGuard(deps.Guard))
	}
	v.participation = participation.NewController(eventID, deps.Backend, v.session, opts...)

	return v
}

func (v *View) ID() string { return v.id }

func (v *View) EventID() int64 { return v.eventID }

func (v *View) Session() session.Provider { return v.session }

func (v *View) Closed() bool { return v.scope.Closed() }

// Close tears the view down. It is safe to call more than once.
func (v *View) Close() {
	v.scope.Close()
}

// Refresh reloads the event and the comments concurrently. A load failure is
// kept on the view and rendered; only a missing event or a closed view is
// returned.
func (v *View) Refresh(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		eventErr error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		eventErr = v.fetchEvent(ctx)
	}()

	go func() {
		defer wg.Done()
		_ = v.comments.Load(ctx)
	}()

	wg.Wait()

	if v.scope.Closed() {
		return domain.ErrViewClosed
	}
	if domain.KindOf(eventErr) == domain.KindNotFound {
		return eventErr
	}
	return nil
}

// fetchEvent replaces the event with the backend's and reconciles the
// participation state with it. A failure keeps the last good event.
func (v *View) fetchEvent(ctx context.Context) error {
	v.mu.Lock()
	v.eventIssued++
	seq := v.eventIssued
	v.mu.Unlock()

	event, err := v.backend.GetEvent(ctx, v.session.BearerToken(), v.eventID)
	if v.scope.Closed() {
		return domain.ErrViewClosed
	}

	v.mu.Lock()
	if seq < v.eventApplied {
		v.mu.Unlock()
		return nil
	}
	v.eventApplied = seq
	if err != nil {
		v.eventErr = err
		v.mu.Unlock()
		return err
	}
	v.event = event
	v.eventErr = nil
	v.mu.Unlock()

	v.participation.Reconcile(event.IsUserParticipating)
	return nil
}

// Join asks the backend to add the user. Failures are kept on the view and
// also returned.
func (v *View) Join(ctx context.Context) error {
	return v.mutateParticipation(ctx, participation.ActionJoin)
}

func (v *View) Leave(ctx context.Context) error {
	return v.mutateParticipation(ctx, participation.ActionLeave)
}

func (v *View) mutateParticipation(ctx context.Context, action participation.Action) error {
	run := v.participation.Join
	if action == participation.ActionLeave {
		run = v.participation.Leave
	}

	out, err := run(ctx)
	if errors.Is(err, domain.ErrViewClosed) {
		return err
	}
	if out.Started {
		uid, _ := v.session.UserID()
		v.telemetry.Participation(ctx, action, v.eventID, uid, out.Result, err)
	}
	return err
}

// AddComment submits the composer. A nil content submits the stored draft
// instead. The draft is cleared on success and kept on failure.
func (v *View) AddComment(ctx context.Context, content *string, parentID *int64) error {
	field := DraftComment
	if parentID != nil {
		field = DraftReply
	}

	v.mu.Lock()
	draft := v.drafts[field]
	if content != nil {
		draft.Edit(*content)
	}
	text := draft.Commit()
	v.composerErr = nil
	v.mu.Unlock()

	submitted, err := v.comments.Add(ctx, text, parentID)
	if errors.Is(err, domain.ErrViewClosed) {
		return err
	}

	v.mu.Lock()
	switch {
	case err != nil:
		v.composerErr = err
	case submitted:
		draft.Reset()
	}
	v.mu.Unlock()

	if submitted {
		uid, _ := v.session.UserID()
		v.telemetry.CommentCreated(ctx, v.eventID, uid, parentID, err)
	}
	return err
}

// DeleteComment removes a comment and, for a root, its replies. A failure is
// shown next to that comment.
func (v *View) DeleteComment(ctx context.Context, commentID int64) error {
	removed, err := v.comments.Remove(ctx, commentID)
	if errors.Is(err, domain.ErrViewClosed) {
		return err
	}

	v.mu.Lock()
	if err != nil {
		v.commentErrs[commentID] = err
	} else {
		for _, id := range removed {
			delete(v.commentErrs, id)
		}
	}
	v.mu.Unlock()

	if err == nil {
		v.expansion.Forget(removed...)
	}

	uid, _ := v.session.UserID()
	v.telemetry.CommentDeleted(ctx, v.eventID, uid, commentID, removed, err)
	return err
}

// StartReply targets a top-level comment and clears the reply draft.
func (v *View) StartReply(commentID int64) error {
	c, ok := v.comments.Find(commentID)
	var err error
	switch {
	case !ok:
		err = domain.ErrCommentNotFound
	case !isRoot(c):
		err = domain.ErrNotReplyable
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.composerErr = err
		return err
	}
	v.composerErr = nil
	v.drafts[DraftReply].Reset()
	v.replies.Start(commentID)
	return nil
}

func (v *View) CancelReply() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replies.Cancel()
	v.drafts[DraftReply].Reset()
}

// ToggleExpanded flips a comment between its truncated and full text and
// returns whether it is now expanded.
func (v *View) ToggleExpanded(commentID int64) (bool, error) {
	if _, ok := v.comments.Find(commentID); !ok {
		return false, domain.ErrCommentNotFound
	}
	return v.expansion.Toggle(commentID), nil
}

func (v *View) SetDraft(field, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	d, ok := v.drafts[field]
	if !ok {
		return domain.ErrUnknownDraft
	}
	d.Edit(text)
	return nil
}

// touch marks the view as used by sess, whose token later backend calls
// forward.
func (v *View) touch(now time.Time, sess session.Provider) {
	v.session.Set(sess)
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func isRoot(c domain.Comment) bool {
	_, ok := c.(domain.Root)
	return ok
}
