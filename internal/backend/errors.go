package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

// Plain-text error bodies longer than this are cut.
const maxMessageLen = 500

// StatusError is a non-2xx backend answer.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error [%d]: %s", e.StatusCode, e.Message)
}

// decodeError classifies a failed response and pulls the user-facing message
// out of whichever error shape the backend used. Message stays empty when the
// body has none; the status text only goes into the StatusError.
func decodeError(resp *http.Response) *domain.ActionError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	code, msg := extractMessage(raw)
	statusMsg := msg
	if statusMsg == "" {
		statusMsg = http.StatusText(resp.StatusCode)
	}
	if statusMsg == "" {
		statusMsg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	return &domain.ActionError{
		Kind:    domain.KindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: msg,
		Err:     &StatusError{StatusCode: resp.StatusCode, Code: code, Message: statusMsg},
	}
}

// extractMessage understands, in order:
//
//	{"message": "..."}
//	{"error": "..."} and {"error": {"code": "...", "message": "..."}}
//	{"detail": "...", "title": "..."} (problem details, detail preferred)
//	{"errors": {"Field": ["..."]}} (validation problem details)
//	"..." (a bare JSON string)
//	plain text
func extractMessage(raw []byte) (code, msg string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ""
	}

	switch raw[0] {
	case '{':
		var body struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
			Code    string          `json:"code"`
			Detail  string          `json:"detail"`
			Title   string          `json:"title"`
			Errors  json.RawMessage `json:"errors"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return "", ""
		}
		code = body.Code
		if m := strings.TrimSpace(body.Message); m != "" {
			return code, m
		}
		if c, m := nestedError(body.Error); m != "" {
			if c != "" {
				code = c
			}
			return code, m
		}
		if m := strings.TrimSpace(body.Detail); m != "" {
			return code, m
		}
		if m := firstValidationMessage(body.Errors); m != "" {
			return code, m
		}
		return code, strings.TrimSpace(body.Title)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return "", strings.TrimSpace(s)
		}
		return "", ""
	case '<', '[':
		// HTML error pages and arrays carry nothing worth showing.
		return "", ""
	default:
		return "", truncateMessage(string(raw))
	}
}

func nestedError(raw json.RawMessage) (code, msg string) {
	if len(raw) == 0 {
		return "", ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return "", strings.TrimSpace(s)
	}
	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Code, strings.TrimSpace(obj.Message)
	}
	return "", ""
}

func firstValidationMessage(raw json.RawMessage) string {
	var errs map[string][]string
	if len(raw) == 0 || json.Unmarshal(raw, &errs) != nil {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		for _, m := range errs[f] {
			if m = strings.TrimSpace(m); m != "" {
				return m
			}
		}
	}
	return ""
}

func truncateMessage(s string) string {
	s = strings.TrimSpace(s)
	if !utf8.ValidString(s) {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxMessageLen {
		return s
	}
	return string([]rune(s)[:maxMessageLen])
}
