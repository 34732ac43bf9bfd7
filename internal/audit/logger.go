package audit

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

// Logger records user interactions that reached the backend.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Joined logs a successful join. status is whatever the backend sent back.
func (l *Logger) Joined(ctx context.Context, eventID, userID int64, status, message string) {
	l.log.Info().
		Str("action", "activity_joined").
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Str("status", status).
		Str("message", message).
		Str("trace_id", TraceID(ctx)).
		Msg("User joined activity")
}

func (l *Logger) Left(ctx context.Context, eventID, userID int64) {
	l.log.Info().
		Str("action", "activity_left").
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Str("trace_id", TraceID(ctx)).
		Msg("User left activity")
}

func (l *Logger) CommentCreated(ctx context.Context, eventID, userID int64, parentID *int64) {
	ev := l.log.Info().
		Str("action", "comment_created").
		Int64("event_id", eventID).
		Int64("user_id", userID)
	if parentID != nil {
		ev = ev.Int64("parent_id", *parentID)
	}
	ev.Str("trace_id", TraceID(ctx)).Msg("User commented")
}

func (l *Logger) CommentDeleted(ctx context.Context, eventID, userID, commentID int64, removed int) {
	l.log.Info().
		Str("action", "comment_deleted").
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Int64("comment_id", commentID).
		Int("removed", removed).
		Str("trace_id", TraceID(ctx)).
		Msg("User deleted comment")
}

// Failed logs a rejected or failed interaction.
func (l *Logger) Failed(ctx context.Context, action string, eventID, userID int64, err error) {
	l.log.Warn().
		Str("action", action).
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Str("kind", string(domain.KindOf(err))).
		Err(err).
		Str("trace_id", TraceID(ctx)).
		Msg("Interaction failed")
}

// TraceID is the active span's trace id, or the request id when tracing is
// off.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return middleware.GetRequestID(ctx)
}
