// Package interaction defines the events the BFF publishes when a user
// interaction succeeds.
package interaction

import "time"

const (
	Producer = "activity-bff"
	Version  = 1

	RoutingActivityJoined = "activity.joined"
	RoutingActivityLeft   = "activity.left"
	RoutingCommentCreated = "comment.created"
	RoutingCommentDeleted = "comment.deleted"
)

// DomainEventEnvelope is the envelope shared by every service on the bus.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	TraceID    string    `json:"trace_id,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

type ParticipationPayload struct {
	EventID int64  `json:"event_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type CommentPayload struct {
	EventID    int64   `json:"event_id"`
	UserID     int64   `json:"user_id"`
	CommentID  int64   `json:"comment_id,omitempty"`
	ParentID   int64   `json:"parent_id,omitempty"`
	RemovedIDs []int64 `json:"removed_ids,omitempty"`
}
