package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/activity"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/response"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/display"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

type openViewRequest struct {
	PreviousViewID string `json:"previousViewId" validate:"omitempty,uuid"`
}

type addCommentRequest struct {
	Content  *string `json:"content" validate:"omitempty,max=4000"`
	ParentID *int64  `json:"parentId" validate:"omitempty,gt=0"`
}

type replyTargetRequest struct {
	CommentID int64 `json:"commentId" validate:"required,gt=0"`
}

type draftRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

// ViewHandler serves the activity views. Failed interactions are not HTTP
// errors: the response is the snapshot, with the failure shown next to the
// control that caused it.
type ViewHandler struct {
	registry      *activity.Registry
	defaultLocale language.Tag
	location      *time.Location
	now           func() time.Time
}

func NewViewHandler(registry *activity.Registry, defaultLocale language.Tag, location *time.Location) *ViewHandler {
	if location == nil {
		location = time.UTC
	}
	return &ViewHandler{
		registry:      registry,
		defaultLocale: defaultLocale,
		location:      location,
		now:           time.Now,
	}
}

func (h *ViewHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventId")
	if !ok {
		return
	}
	var req openViewRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	v, err := h.registry.Open(r.Context(), eventID, session.FromContext(r.Context()), req.PreviousViewID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			sendError(w, r, "event.not_found", "event not found", http.StatusNotFound)
			return
		}
		sendError(w, r, "upstream_unavailable", "failed to open activity", http.StatusBadGateway)
		return
	}
	h.render(w, r, v, http.StatusCreated)
}

func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.view(w, r); ok {
		h.render(w, r, v, http.StatusOK)
	}
}

func (h *ViewHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.result(w, r, v, v.Refresh(r.Context()))
}

func (h *ViewHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(chi.URLParam(r, "viewId"), session.FromContext(r.Context())); err != nil {
		sendError(w, r, "view.not_found", "view not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ViewHandler) Join(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.result(w, r, v, v.Join(r.Context()))
}

func (h *ViewHandler) Leave(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.result(w, r, v, v.Leave(r.Context()))
}

func (h *ViewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	var req addCommentRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	h.result(w, r, v, v.AddComment(r.Context(), req.Content, req.ParentID))
}

func (h *ViewHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	h.result(w, r, v, v.DeleteComment(r.Context(), commentID))
}

func (h *ViewHandler) StartReply(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	var req replyTargetRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	h.result(w, r, v, v.StartReply(req.CommentID))
}

func (h *ViewHandler) CancelReply(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.CancelReply()
	h.render(w, r, v, http.StatusOK)
}

func (h *ViewHandler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	if _, err := v.ToggleExpanded(commentID); err != nil {
		sendError(w, r, "comment.not_found", "comment not found", http.StatusNotFound)
		return
	}
	h.render(w, r, v, http.StatusOK)
}

func (h *ViewHandler) SetDraft(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	var req draftRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	field := chi.URLParam(r, "field")
	if err := v.SetDraft(field, req.Text); err != nil {
		sendErrorMeta(w, r, "request.invalid", "unknown draft field", http.StatusBadRequest, map[string]string{
			"field": "must be " + activity.DraftComment + " or " + activity.DraftReply,
		})
		return
	}
	h.render(w, r, v, http.StatusOK)
}

func (h *ViewHandler) view(w http.ResponseWriter, r *http.Request) (*activity.View, bool) {
	v, err := h.registry.Get(chi.URLParam(r, "viewId"), session.FromContext(r.Context()))
	if err != nil {
		sendError(w, r, "view.not_found", "view not found", http.StatusNotFound)
		return nil, false
	}
	return v, true
}

// result renders the snapshot after an interaction. Only a view torn down
// while the call was running is an HTTP error.
func (h *ViewHandler) result(w http.ResponseWriter, r *http.Request, v *activity.View, err error) {
	if errors.Is(err, domain.ErrViewClosed) {
		sendError(w, r, "view.not_found", "view not found", http.StatusNotFound)
		return
	}
	h.render(w, r, v, http.StatusOK)
}

func (h *ViewHandler) render(w http.ResponseWriter, r *http.Request, v *activity.View, status int) {
	l := display.NewLocalizer(display.ResolveTag(r, h.defaultLocale), h.location)
	response.Data(w, status, v.Snapshot(l, h.now()))
}
