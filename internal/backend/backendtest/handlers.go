package backendtest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

// Zone-less, the way the production backend serializes createdAt.
const wireTimeLayout = "2006-01-02T15:04:05.9999999"

type wireComment struct {
	ID         int64         `json:"id"`
	AuthorID   int64         `json:"authorId"`
	AuthorName string        `json:"authorName"`
	Content    string        `json:"content"`
	CreatedAt  string        `json:"createdAt"`
	ParentID   *int64        `json:"parentId,omitempty"`
	Replies    []wireComment `json:"replies,omitempty"`
}

func (s *Server) insertComment(eventID, authorID int64, content string, parentID int64, createdAt time.Time) int64 {
	s.nextCommentID++
	s.comments = append(s.comments, &comment{
		id:        s.nextCommentID,
		eventID:   eventID,
		authorID:  authorID,
		content:   content,
		createdAt: createdAt,
		parentID:  parentID,
	})
	return s.nextCommentID
}

func (s *Server) wire(c *comment) wireComment {
	out := wireComment{
		ID:         c.id,
		AuthorID:   c.authorID,
		AuthorName: s.users[c.authorID],
		Content:    c.content,
		CreatedAt:  c.createdAt.UTC().Format(wireTimeLayout),
	}
	if c.parentID != 0 {
		pid := c.parentID
		out.ParentID = &pid
	}
	return out
}

func (s *Server) findComment(eventID, id int64) *comment {
	for _, c := range s.comments {
		if c.eventID == eventID && c.id == id {
			return c
		}
	}
	return nil
}

func eventID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	return id, err == nil
}

func (s *Server) lookupEvent(w http.ResponseWriter, r *http.Request) (*domain.Event, bool) {
	id, ok := eventID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid event id")
		return nil, false
	}
	ev := s.events[id]
	if ev == nil {
		writeMessage(w, http.StatusNotFound, "event not found")
		return nil, false
	}
	return ev, true
}

func participantIndex(ev *domain.Event, userID int64) int {
	for i, p := range ev.Participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func adjustCount(ev *domain.Event, delta int) {
	ev.CurrentParticipants += delta
	if ev.CurrentParticipants < 0 {
		ev.CurrentParticipants = 0
	}
	ev.IsFull = ev.MaxParticipants > 0 && ev.CurrentParticipants >= ev.MaxParticipants
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, c call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	out := ev.Clone()
	out.IsUserParticipating = c.caller != 0 && participantIndex(ev, c.caller) >= 0
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, _ call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	out := []wireComment{}
	if s.flat {
		for _, cm := range s.comments {
			if cm.eventID == ev.ID {
				out = append(out, s.wire(cm))
			}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	children := make(map[int64][]*comment)
	var roots []*comment
	for _, cm := range s.comments {
		if cm.eventID != ev.ID {
			continue
		}
		if cm.parentID == 0 {
			roots = append(roots, cm)
		} else {
			children[cm.parentID] = append(children[cm.parentID], cm)
		}
	}

	var nest func(cm *comment) wireComment
	nest = func(cm *comment) wireComment {
		wc := s.wire(cm)
		for _, child := range children[cm.id] {
			wc.Replies = append(wc.Replies, nest(child))
		}
		return wc
	}
	for _, root := range roots {
		out = append(out, nest(root))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, c call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.caller == 0 {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}

	content, _ := c.body["content"].(string)
	if strings.TrimSpace(content) == "" {
		writeMessage(w, http.StatusBadRequest, "content is required")
		return
	}

	var parentID int64
	if raw, ok := c.body["parentId"].(float64); ok && raw != 0 {
		parentID = int64(raw)
		if s.findComment(ev.ID, parentID) == nil {
			writeMessage(w, http.StatusNotFound, "parent comment not found")
			return
		}
	}

	id := s.insertComment(ev.ID, c.caller, content, parentID, time.Now())
	writeJSON(w, http.StatusCreated, s.wire(s.findComment(ev.ID, id)))
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request, c call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.caller == 0 {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	target := s.findComment(ev.ID, id)
	if target == nil {
		writeMessage(w, http.StatusNotFound, "comment not found")
		return
	}
	if target.authorID != c.caller {
		writeMessage(w, http.StatusForbidden, "only the author can delete this comment")
		return
	}

	doomed := map[int64]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, cm := range s.comments {
			if !doomed[cm.id] && doomed[cm.parentID] {
				doomed[cm.id] = true
				changed = true
			}
		}
	}
	kept := s.comments[:0]
	for _, cm := range s.comments {
		if !doomed[cm.id] {
			kept = append(kept, cm)
		}
	}
	s.comments = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) join(w http.ResponseWriter, r *http.Request, c call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.caller == 0 {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	if participantIndex(ev, c.caller) >= 0 {
		writeMessage(w, http.StatusConflict, "already a participant")
		return
	}
	if ev.IsFull || (ev.MaxParticipants > 0 && ev.CurrentParticipants >= ev.MaxParticipants) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "event is full", "status": "EventFull"})
		return
	}

	ev.Participants = append(ev.Participants, domain.Participant{UserID: c.caller, UserName: s.users[c.caller]})
	adjustCount(ev, 1)
	writeJSON(w, http.StatusOK, domain.JoinResult{Message: "joined", Status: "Joined"})
}

func (s *Server) leave(w http.ResponseWriter, r *http.Request, c call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.caller == 0 {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ev, ok := s.lookupEvent(w, r)
	if !ok {
		return
	}
	i := participantIndex(ev, c.caller)
	if i < 0 {
		writeMessage(w, http.StatusBadRequest, "not a participant")
		return
	}

	ev.Participants = append(ev.Participants[:i], ev.Participants[i+1:]...)
	adjustCount(ev, -1)
	w.WriteHeader(http.StatusNoContent)
}
