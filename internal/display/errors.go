package display

import (
	"errors"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

// ErrorText is the inline message shown next to the control that failed.
// Backend rejections are shown verbatim; transport failures get a generic
// localized message.
func ErrorText(l Localizer, err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, domain.ErrCommentNotFound):
		return l.T("error.comment_not_found")
	case errors.Is(err, domain.ErrNotReplyable):
		return l.T("error.not_replyable")
	}

	var ae *domain.ActionError
	if !errors.As(err, &ae) {
		return l.T("error.transport")
	}

	switch ae.Kind {
	case domain.KindRejected:
		if ae.Message != "" {
			return ae.Message
		}
		return l.T("error.rejected")
	case domain.KindNotFound:
		if ae.Message != "" {
			return ae.Message
		}
		return l.T("error.not_found")
	case domain.KindUnauthorized:
		return l.T("error.unauthorized")
	default:
		return l.T("error.transport")
	}
}
