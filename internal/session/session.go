// Package session carries the caller's identity into the activity engine.
// The engine never reads headers or cookies itself; it is handed a Provider.
package session

import (
	"context"
	"sync"
)

// Provider is the session capability injected into every activity view.
type Provider interface {
	// UserID reports the signed-in user, if any.
	UserID() (int64, bool)
	// BearerToken is the raw token forwarded to the backend, or "".
	BearerToken() string
}

// Session is the request-scoped Provider built by the auth middleware.
// Anonymous sessions carry the client they came from instead of a user.
type Session struct {
	userID int64
	token  string
	client string
}

func New(userID int64, token string) Session {
	return Session{userID: userID, token: token}
}

func Anonymous() Session {
	return Session{}
}

// AnonymousFrom is an anonymous session bound to client, typically the
// caller's address.
func AnonymousFrom(client string) Session {
	return Session{client: client}
}

func (s Session) UserID() (int64, bool) {
	return s.userID, s.userID > 0
}

func (s Session) BearerToken() string {
	return s.token
}

func (s Session) Client() string {
	return s.client
}

// SameUser reports whether a and b belong to the same caller: the same
// signed-in user, or two anonymous sessions from the same client.
func SameUser(a, b Provider) bool {
	au, aok := a.UserID()
	bu, bok := b.UserID()
	if aok != bok {
		return false
	}
	if aok {
		return au == bu
	}
	return clientOf(a) == clientOf(b)
}

func clientOf(p Provider) string {
	if c, ok := p.(interface{ Client() string }); ok {
		return c.Client()
	}
	return ""
}

// Live is a Provider whose session can be swapped while it is in use. A
// long-lived view holds one so backend calls carry the caller's latest token.
type Live struct {
	mu      sync.RWMutex
	current Provider
}

func NewLive(p Provider) *Live {
	if p == nil {
		p = Anonymous()
	}
	return &Live{current: p}
}

// Set replaces the session. A nil p is ignored.
func (l *Live) Set(p Provider) {
	if p == nil {
		return
	}
	l.mu.Lock()
	l.current = p
	l.mu.Unlock()
}

func (l *Live) get() Provider {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func (l *Live) UserID() (int64, bool) { return l.get().UserID() }

func (l *Live) BearerToken() string { return l.get().BearerToken() }

func (l *Live) Client() string { return clientOf(l.get()) }

type ctxKeySession struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, s)
}

// FromContext returns the session stored by the auth middleware, or an
// anonymous one.
func FromContext(ctx context.Context) Session {
	if ctx == nil {
		return Anonymous()
	}
	if s, ok := ctx.Value(ctxKeySession{}).(Session); ok {
		return s
	}
	return Anonymous()
}
