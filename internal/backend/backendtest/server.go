// Package backendtest is an in-memory activity backend for tests. It speaks
// the same REST contract as the real backend. A bearer token is either the
// numeric user id ("Bearer 7") or a JWT carrying it, read without
// verification.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

const (
	OpGetEvent      = "get_event"
	OpListComments  = "list_comments"
	OpCreateComment = "create_comment"
	OpDeleteComment = "delete_comment"
	OpJoin          = "join"
	OpLeave         = "leave"
)

type comment struct {
	id        int64
	eventID   int64
	authorID  int64
	content   string
	createdAt time.Time
	parentID  int64
}

type failure struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	events        map[int64]*domain.Event
	users         map[int64]string
	comments      []*comment
	nextCommentID int64
	flat          bool

	calls       map[string]int
	lastHeaders map[string]http.Header
	lastBodies  map[string]map[string]any
	failNext    map[string]failure
	gates       map[string]chan struct{}
}

func NewServer() *Server {
	s := &Server{
		events:        make(map[int64]*domain.Event),
		users:         make(map[int64]string),
		nextCommentID: 1000,
		calls:         make(map[string]int),
		lastHeaders:   make(map[string]http.Header),
		lastBodies:    make(map[string]map[string]any),
		failNext:      make(map[string]failure),
		gates:         make(map[string]chan struct{}),
	}

	r := chi.NewRouter()
	r.Route("/api/events/{eventId}", func(r chi.Router) {
		r.Get("/", s.op(OpGetEvent, s.getEvent))
		r.Get("/comments", s.op(OpListComments, s.listComments))
		r.Post("/comments", s.op(OpCreateComment, s.createComment))
		r.Delete("/comments/{commentId}", s.op(OpDeleteComment, s.deleteComment))
		r.Post("/join", s.op(OpJoin, s.join))
		r.Delete("/leave", s.op(OpLeave, s.leave))
	})

	// Reference data the BFF only forwards.
	r.Get("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Sport"}})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers a display name used for comments and participants.
func (s *Server) AddUser(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = name
}

// AddEvent seeds an event. Participants, CurrentParticipants and IsFull are
// kept consistent from then on.
func (s *Server) AddEvent(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := e.Clone()
	if ev.CurrentParticipants < len(ev.Participants) {
		ev.CurrentParticipants = len(ev.Participants)
	}
	ev.IsFull = ev.IsFull || (ev.MaxParticipants > 0 && ev.CurrentParticipants >= ev.MaxParticipants)
	s.events[e.ID] = ev
}

// AddComment seeds a comment and returns its id. parentID 0 makes a root.
func (s *Server) AddComment(eventID, authorID int64, content string, parentID int64, createdAt time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertComment(eventID, authorID, content, parentID, createdAt)
}

// ServeFlat switches comment listing to a flat array linked by parentId.
func (s *Server) ServeFlat(flat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flat = flat
}

// FailNext makes the next call of op answer with status and body.
func (s *Server) FailNext(op string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = failure{status: status, body: body}
}

// Hold blocks calls of op until the returned release func is called. Calls
// are counted before they block.
func (s *Server) Hold(op string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[op] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[op] == gate {
				delete(s.gates, op)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Server) LastHeader(op string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders[op].Clone()
}

// LastBody is the decoded JSON body of the last call of op.
func (s *Server) LastBody(op string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBodies[op]
}

// Event returns the backend's current copy of an event as seen anonymously.
func (s *Server) Event(id int64) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id].Clone()
}

// CommentIDs lists the ids currently stored for an event.
func (s *Server) CommentIDs(eventID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, c := range s.comments {
		if c.eventID == eventID {
			ids = append(ids, c.id)
		}
	}
	return ids
}

type call struct {
	caller int64
	body   map[string]any
}

func (s *Server) op(name string, h func(w http.ResponseWriter, r *http.Request, c call)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		s.mu.Lock()
		s.calls[name]++
		s.lastHeaders[name] = r.Header.Clone()
		s.lastBodies[name] = body
		gate := s.gates[name]
		fail, failing := s.failNext[name]
		delete(s.failNext, name)
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}

		h(w, r, call{caller: callerID(r), body: body})
	}
}

func callerID(r *http.Request) int64 {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return 0
	}
	token = strings.TrimSpace(token)
	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		return max(id, 0)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	id, _ := middleware.UserIDFromClaims(claims)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
