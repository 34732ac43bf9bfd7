package activity

import (
	"errors"
	"time"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/display"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

// Snapshot is one rendering of a view for the client.
type Snapshot struct {
	ViewID          string                `json:"viewId"`
	EventID         int64                 `json:"eventId"`
	Event           *domain.Event         `json:"event"`
	Participants    []domain.Participant  `json:"participants"`
	Participation   ParticipationView     `json:"participation"`
	Actions         domain.ActionPolicy   `json:"actions"`
	Comments        []display.CommentView `json:"comments"`
	CommentsLoading bool                  `json:"commentsLoading"`
	CommentsError   string                `json:"commentsError,omitempty"`
	ComposerError   string                `json:"composerError,omitempty"`
	ReplyTarget     *int64                `json:"replyTarget"`
	Drafts          map[string]string     `json:"drafts"`
	Degraded        *DegradedInfo         `json:"degraded,omitempty"`
}

type ParticipationView struct {
	State         domain.ParticipationState `json:"state"`
	Participating bool                      `json:"participating"`
	InFlight      bool                      `json:"inFlight"`
	Error         string                    `json:"error,omitempty"`
}

// DegradedInfo is set when the last event refetch failed and the snapshot
// shows the last good copy.
type DegradedInfo struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

func (v *View) Snapshot(l display.Localizer, now time.Time) Snapshot {
	state := v.participation.State()
	uid, authed := v.session.UserID()
	target, replying := v.replies.Target()

	v.mu.Lock()
	event := v.event.Clone()
	eventErr := v.eventErr
	composerErr := v.composerErr
	commentErrs := make(map[int64]string, len(v.commentErrs))
	for id, err := range v.commentErrs {
		commentErrs[id] = display.ErrorText(l, err)
	}
	drafts := make(map[string]string, len(v.drafts))
	for name, f := range v.drafts {
		drafts[name] = f.Draft
	}
	v.mu.Unlock()

	snap := Snapshot{
		ViewID:  v.id,
		EventID: v.eventID,
		Event:   event,
		Participation: ParticipationView{
			State:         state,
			Participating: state.Participating(),
			InFlight:      state.InFlight(),
			Error:         display.ErrorText(l, v.participation.Err()),
		},
		Actions: domain.CalculateActionPolicy(event, state, uid, authed),
		Comments: display.RenderThread(l, v.comments.Tree(), display.ThreadOptions{
			ViewerID:      uid,
			Authenticated: authed,
			Now:           now,
			Expansion:     v.expansion,
			ReplyTarget:   target,
			Replying:      replying,
			Errors:        commentErrs,
		}),
		CommentsLoading: v.comments.Loading(),
		CommentsError:   display.ErrorText(l, v.comments.Err()),
		ComposerError:   display.ErrorText(l, composerErr),
		Drafts:          drafts,
		Participants:    []domain.Participant{},
	}
	if event != nil && event.Participants != nil {
		snap.Participants = event.Participants
	}
	if replying {
		snap.ReplyTarget = &target
	}
	if eventErr != nil {
		snap.Degraded = &DegradedInfo{
			Event:   degradedReason(eventErr),
			Message: l.T("event.degraded"),
		}
	}
	return snap
}

func degradedReason(err error) string {
	switch {
	case errors.Is(err, backend.ErrTimeout):
		return "timeout"
	case domain.KindOf(err) == domain.KindNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}
