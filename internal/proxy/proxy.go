// Package proxy forwards the routes this service does not own to the
// backend unchanged.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/response"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

// New creates a reverse proxy to targetHost. A request path starting with
// stripPrefix has it replaced by upstreamPrefix; pass the same value twice to
// keep paths as they are.
func New(targetHost, stripPrefix, upstreamPrefix string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetHost)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	originalDirector := proxy.Director

	proxy.Director = func(req *http.Request) {
		originalDirector(req)

		req.Host = target.Host

		// /api/auth/login -> <upstreamPrefix>/login
		if stripPrefix != upstreamPrefix && strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = upstreamPrefix + strings.TrimPrefix(req.URL.Path, stripPrefix)
			req.URL.RawPath = ""
		}

		if reqID := middleware.GetRequestID(req.Context()); reqID != "" {
			req.Header.Set(middleware.HeaderXRequestID, reqID)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Ctx(r.Context()).Error().
			Err(err).
			Str("target", targetHost).
			Str("path", r.URL.Path).
			Msg("upstream_proxy_error")

		response.Fail(w, http.StatusBadGateway, "upstream_unavailable", "upstream service unreachable", nil, middleware.GetRequestID(r.Context()))
	}

	return proxy, nil
}
