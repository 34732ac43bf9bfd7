// Package comments holds the comment thread of one activity and the reply
// target the user has picked in it.
package comments

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/scope"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

type Backend interface {
	ListComments(ctx context.Context, token string, eventID int64) ([]domain.RawComment, error)
	CreateComment(ctx context.Context, token string, eventID int64, content string, parentID *int64) (*domain.RawComment, error)
	DeleteComment(ctx context.Context, token string, eventID, commentID int64) error
}

// Store is the canonical comment tree for one activity. The mutex guards
// state only and is never held across a backend call.
type Store struct {
	eventID int64
	backend Backend
	session session.Provider
	replies *ReplySelector
	scope   *scope.Scope

	mu       sync.Mutex
	tree     []domain.Root
	err      error
	inFlight int
	// issued counts loads and removals started; applied is the sequence
	// number of the one the tree currently reflects.
	issued  uint64
	applied uint64
}

type Option func(*Store)

// WithScope discards responses that arrive after sc is closed.
func WithScope(sc *scope.Scope) Option {
	return func(s *Store) { s.scope = sc }
}

func NewStore(eventID int64, backend Backend, sess session.Provider, replies *ReplySelector, opts ...Option) *Store {
	if replies == nil {
		replies = NewReplySelector()
	}
	s := &Store{
		eventID: eventID,
		backend: backend,
		session: sess,
		replies: replies,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) EventID() int64 { return s.eventID }

func (s *Store) Replies() *ReplySelector { return s.replies }

// Load replaces the tree with the backend's. When loads overlap, a result is
// dropped if a later-issued load has already been applied. A failed load
// empties the tree and records the error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.inFlight++
	s.mu.Unlock()

	raw, err := s.backend.ListComments(ctx, s.session.BearerToken(), s.eventID)

	s.mu.Lock()
	s.inFlight--
	if s.scope.Closed() {
		s.mu.Unlock()
		return domain.ErrViewClosed
	}
	if seq < s.applied {
		s.mu.Unlock()
		return nil
	}
	s.applied = seq
	if err != nil {
		s.tree = nil
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.tree = domain.BuildThread(raw)
	s.err = nil
	tree := s.tree
	s.mu.Unlock()

	if target, ok := s.replies.Target(); ok {
		if c, found := domain.FindComment(tree, target); !found || !isRoot(c) {
			s.replies.cancelIf(target)
		}
	}
	return nil
}

// Add submits a comment, or a reply when parentID is set. Blank text is a
// no-op: nothing is sent and submitted is false. A reply to a reply is sent to
// that reply's root. On success the tree is reloaded and, for replies, the
// reply target is cleared. On failure the tree is left alone.
func (s *Store) Add(ctx context.Context, text string, parentID *int64) (submitted bool, err error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return false, nil
	}

	var parent *int64
	if parentID != nil {
		c, ok := s.Find(*parentID)
		if !ok {
			return false, domain.ErrCommentNotFound
		}
		rootID := rootOf(c)
		parent = &rootID
	}

	if _, err := s.backend.CreateComment(ctx, s.session.BearerToken(), s.eventID, content, parent); err != nil {
		if s.scope.Closed() {
			return true, domain.ErrViewClosed
		}
		return true, err
	}
	if s.scope.Closed() {
		return true, domain.ErrViewClosed
	}

	if parentID != nil {
		s.replies.cancelIf(*parentID)
		s.replies.cancelIf(*parent)
	}

	if err := s.Load(ctx); errors.Is(err, domain.ErrViewClosed) {
		return true, err
	}
	return true, nil
}

// Remove deletes a comment. Removing a root takes its replies with it. The
// ids that left the tree are returned, and a reply target pointing at any of
// them is cleared. The removal counts as a newer state than any load issued
// before it, so such a load cannot bring the comment back.
func (s *Store) Remove(ctx context.Context, commentID int64) ([]int64, error) {
	err := s.backend.DeleteComment(ctx, s.session.BearerToken(), s.eventID, commentID)
	if s.scope.Closed() {
		return nil, domain.ErrViewClosed
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var removed []int64
	s.tree, removed = domain.RemoveComment(s.tree, commentID)
	s.issued++
	s.applied = s.issued
	s.mu.Unlock()

	s.replies.forget(removed)
	return removed, nil
}

// Tree returns a copy of the current tree in backend order.
func (s *Store) Tree() []domain.Root {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneThread(s.tree)
}

// Err is the error of the last applied load, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

func (s *Store) Find(id int64) (domain.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FindComment(s.tree, id)
}

func (s *Store) IsRoot(id int64) bool {
	c, ok := s.Find(id)
	return ok && isRoot(c)
}

func isRoot(c domain.Comment) bool {
	_, ok := c.(domain.Root)
	return ok
}

func rootOf(c domain.Comment) int64 {
	if r, ok := c.(domain.Reply); ok {
		return r.RootID
	}
	return c.Fields().ID
}
