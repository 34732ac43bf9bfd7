package comments

import "sync"

// ReplySelector holds the comment the user is currently replying to. There is
// at most one target at a time.
type ReplySelector struct {
	mu     sync.Mutex
	target int64
	active bool
}

func NewReplySelector() *ReplySelector {
	return &ReplySelector{}
}

// Start replaces any existing target with commentID.
func (s *ReplySelector) Start(commentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = commentID
	s.active = true
}

func (s *ReplySelector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = 0
	s.active = false
}

func (s *ReplySelector) IsReplying(commentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.target == commentID
}

func (s *ReplySelector) Target() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.active
}

// cancelIf clears the target only when it is still commentID, so a newer
// Start is never undone.
func (s *ReplySelector) cancelIf(commentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active && s.target == commentID {
		s.target = 0
		s.active = false
	}
}

// forget clears the target if it is one of ids.
func (s *ReplySelector) forget(ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	for _, id := range ids {
		if id == s.target {
			s.target = 0
			s.active = false
			return
		}
	}
}
