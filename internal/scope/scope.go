// Package scope tracks the lifetime of one open activity screen. Components
// check it before applying a backend response so nothing lands after teardown.
package scope

import (
	"sync"
	"sync/atomic"
)

type Scope struct {
	closed atomic.Bool
	once   sync.Once
	done   chan struct{}
}

func New() *Scope {
	return &Scope{done: make(chan struct{})}
}

// Close is idempotent.
func (s *Scope) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
}

// Closed reports whether Close has been called. A nil scope never closes.
func (s *Scope) Closed() bool {
	return s != nil && s.closed.Load()
}

// Done is closed on teardown. A nil scope returns a nil channel.
func (s *Scope) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}
