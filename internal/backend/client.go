package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

var (
	ErrTimeout     = errors.New("backend timeout")
	ErrUnavailable = errors.New("backend unavailable")
	ErrBadResponse = errors.New("backend response not understood")

	errEmptyBody = errors.New("empty body")
)

// Error bodies beyond this are not read.
const maxErrorBody = 64 << 10

// ClientConfig holds per-method deadlines. Zero means no deadline beyond the
// caller's context.
type ClientConfig struct {
	// ReadTimeout applies to GET requests.
	ReadTimeout time.Duration
	// WriteTimeout applies to POST, PUT, PATCH and DELETE.
	WriteTimeout time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// Client is the single path to the activity backend. It forwards the
// caller's bearer token and request id, applies method-based deadlines and
// turns every failure into a *domain.ActionError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	config     ClientConfig
}

type Option func(*Client)

// WithHTTPClient replaces the default tracing client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, config ClientConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &middleware.TracingTransport{Base: http.DefaultTransport},
		},
		config: config,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method string
	// route is the path template used as a metric label.
	route string
	path  string
	token string
	body  any
	// allowEmpty accepts a 2xx answer without a body.
	allowEmpty bool
}

// do sends req and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.route, err)
		}
		body = bytes.NewReader(b)
	}

	if timeout := c.timeoutFor(req.method); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		httpReq.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	log := logger.Ctx(ctx).With().
		Str("method", req.method).
		Str("route", req.route).
		Str("path", req.path).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(req.method, req.route, "error").Observe(duration.Seconds())
		log.Warn().Err(err).Dur("duration", duration).Msg("backend_request_failed")
		return transportError(err)
	}
	defer resp.Body.Close()

	metrics.BackendRequestDuration.WithLabelValues(req.method, req.route, strconv.Itoa(resp.StatusCode)).Observe(duration.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		actionErr := decodeError(resp)
		log.Warn().
			Int("status", resp.StatusCode).
			Str("kind", string(actionErr.Kind)).
			Str("message", actionErr.Error()).
			Dur("duration", duration).
			Msg("backend_request_failed")
		return actionErr
	}

	log.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("backend_request_completed")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		if errors.Is(err, errEmptyBody) && req.allowEmpty {
			return nil
		}
		log.Warn().Err(err).Msg("backend_response_invalid")
		return &domain.ActionError{
			Kind:   domain.KindTransport,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%w: %v", ErrBadResponse, err),
		}
	}
	return nil
}

func (c *Client) timeoutFor(method string) time.Duration {
	if isWriteMethod(method) {
		return c.config.WriteTimeout
	}
	return c.config.ReadTimeout
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func transportError(err error) *domain.ActionError {
	cause := ErrUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		cause = ErrTimeout
	}
	return &domain.ActionError{
		Kind: domain.KindTransport,
		Err:  fmt.Errorf("%w: %v", cause, err),
	}
}

// decodeJSON reads a JSON body into out. A {"data": ...} envelope is
// unwrapped so the backend may sit behind a gateway that adds one.
func decodeJSON(r io.Reader, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errEmptyBody
	}
	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if data, ok := env["data"]; ok && len(env) == 1 {
				raw = data
			}
		}
	}
	return json.Unmarshal(raw, out)
}
