package domain

import (
	"errors"
	"net/http"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotReplyable    = errors.New("only top-level comments accept replies")
	ErrViewClosed      = errors.New("activity view closed")
	ErrViewNotFound    = errors.New("activity view not found")
	ErrUnknownDraft    = errors.New("unknown draft field")
)

type ErrorKind string

const (
	// KindTransport covers network failures, timeouts and 5xx answers.
	KindTransport    ErrorKind = "transport"
	KindUnauthorized ErrorKind = "unauthorized"
	// KindRejected is a domain rejection: the backend refused the request
	// with a message meant for the user ("event is full").
	KindRejected ErrorKind = "rejected"
	KindNotFound ErrorKind = "not_found"
)

// ActionError is what every failed backend call turns into at the
// store/controller boundary.
type ActionError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *ActionError) Unwrap() error { return e.Err }

// KindForStatus classifies a non-2xx backend status.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindRejected
	default:
		return KindTransport
	}
}

// KindOf returns the kind of err, or "" when err is not an ActionError.
func KindOf(err error) ErrorKind {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
