package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/response"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int) {
	sendErrorMeta(w, r, code, message, status, nil)
}

func sendErrorMeta(w http.ResponseWriter, r *http.Request, code, message string, status int, meta map[string]string) {
	response.Fail(w, status, code, message, meta, middleware.GetRequestID(r.Context()))
}

// pathID reads a positive numeric URL parameter. It writes the 400 itself.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		sendErrorMeta(w, r, "request.invalid", "invalid "+name, http.StatusBadRequest, map[string]string{
			name: "must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// decodeBody decodes and validates a JSON body into dst. An empty body is
// accepted when optional is set. It writes the 400 itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			sendError(w, r, "request.invalid", "invalid body", http.StatusBadRequest)
			return false
		}
	}
	if msg, meta := validateRequest(dst); msg != "" {
		sendErrorMeta(w, r, "request.invalid", msg, http.StatusBadRequest, meta)
		return false
	}
	return true
}
