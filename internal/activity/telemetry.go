package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/audit"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/contracts/interaction"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/participation"
)

type Publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

const publishTimeout = 2 * time.Second

// Telemetry records finished interactions: metrics, the audit log and a
// best-effort event on the bus. A nil *Telemetry records nothing.
type Telemetry struct {
	audit     *audit.Logger
	publisher Publisher

	wg sync.WaitGroup
}

func NewTelemetry(a *audit.Logger, p Publisher) *Telemetry {
	return &Telemetry{audit: a, publisher: p}
}

func (t *Telemetry) Participation(ctx context.Context, action participation.Action, eventID, userID int64, result domain.JoinResult, err error) {
	if t == nil {
		return
	}
	metrics.ParticipationRequests.WithLabelValues(string(action), metrics.Outcome(err)).Inc()

	if err != nil {
		if t.audit != nil {
			t.audit.Failed(ctx, string(action), eventID, userID, err)
		}
		return
	}

	payload := interaction.ParticipationPayload{EventID: eventID, UserID: userID}
	routingKey := interaction.RoutingActivityLeft
	if action == participation.ActionJoin {
		routingKey = interaction.RoutingActivityJoined
		payload.Status = result.Status
		payload.Message = result.Message
	}

	if t.audit != nil {
		if action == participation.ActionJoin {
			t.audit.Joined(ctx, eventID, userID, result.Status, result.Message)
		} else {
			t.audit.Left(ctx, eventID, userID)
		}
	}
	publish(ctx, t, routingKey, payload)
}

func (t *Telemetry) CommentCreated(ctx context.Context, eventID, userID int64, parentID *int64, err error) {
	if t == nil {
		return
	}
	metrics.CommentMutations.WithLabelValues("create", metrics.Outcome(err)).Inc()

	if err != nil {
		if t.audit != nil {
			t.audit.Failed(ctx, "comment_create", eventID, userID, err)
		}
		return
	}

	payload := interaction.CommentPayload{EventID: eventID, UserID: userID}
	if parentID != nil {
		payload.ParentID = *parentID
	}
	if t.audit != nil {
		t.audit.CommentCreated(ctx, eventID, userID, parentID)
	}
	publish(ctx, t, interaction.RoutingCommentCreated, payload)
}

func (t *Telemetry) CommentDeleted(ctx context.Context, eventID, userID, commentID int64, removed []int64, err error) {
	if t == nil {
		return
	}
	metrics.CommentMutations.WithLabelValues("delete", metrics.Outcome(err)).Inc()

	if err != nil {
		if t.audit != nil {
			t.audit.Failed(ctx, "comment_delete", eventID, userID, err)
		}
		return
	}

	if t.audit != nil {
		t.audit.CommentDeleted(ctx, eventID, userID, commentID, len(removed))
	}
	publish(ctx, t, interaction.RoutingCommentDeleted, interaction.CommentPayload{
		EventID:    eventID,
		UserID:     userID,
		CommentID:  commentID,
		RemovedIDs: removed,
	})
}

// Wait blocks until in-flight publishes are done.
func (t *Telemetry) Wait() {
	if t == nil {
		return
	}
	t.wg.Wait()
}

func publish[T any](ctx context.Context, t *Telemetry, routingKey string, payload T) {
	if t.publisher == nil {
		return
	}

	env := interaction.DomainEventEnvelope[T]{
		Version:    interaction.Version,
		Producer:   interaction.Producer,
		TraceID:    audit.TraceID(ctx),
		MessageID:  uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("routing_key", routingKey).Msg("interaction_encode_failed")
		return
	}

	// The request may finish before the broker confirms.
	pubCtx := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(pubCtx, publishTimeout)
		defer cancel()
		if err := t.publisher.PublishEvent(ctx, routingKey, env.MessageID, body); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("routing_key", routingKey).
				Str("message_id", env.MessageID).
				Msg("interaction_publish_failed")
		}
	}()
}
