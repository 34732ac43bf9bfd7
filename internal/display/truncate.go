package display

import "sync"

const (
	// TruncateLimit is the longest body shown without an expand control.
	TruncateLimit = 150
	ellipsis      = "…"
)

// Truncate cuts s to TruncateLimit characters plus an ellipsis. It reports
// whether anything was cut.
func Truncate(s string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= TruncateLimit {
		return s, false
	}
	return string(runes[:TruncateLimit]) + ellipsis, true
}

// Expansion remembers which truncated comments the viewer has expanded. It
// lives as long as the view and never touches the comments themselves.
type Expansion struct {
	mu       sync.Mutex
	expanded map[int64]bool
}

func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[int64]bool)}
}

// Toggle flips the comment's state and returns the new one.
func (e *Expansion) Toggle(commentID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expanded[commentID] {
		delete(e.expanded, commentID)
		return false
	}
	e.expanded[commentID] = true
	return true
}

func (e *Expansion) Expanded(commentID int64) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[commentID]
}

// Forget drops state for comments that no longer exist.
func (e *Expansion) Forget(commentIDs ...int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range commentIDs {
		delete(e.expanded, id)
	}
}
