package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/activity"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/handlers"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/config"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/proxy"
	"github.com/baechuer/real-time-ressys/services/activity-bff/middleware"
)

const serviceName = "activity-bff"

// Routes forwarded to the backend untouched.
var proxiedPrefixes = []string{
	"/api/auth",
	"/api/categories",
	"/api/cities",
	"/api/users",
	"/api/images",
	"/api/settings",
}

type Deps struct {
	Config   *config.Config
	Registry *activity.Registry
	// Redis is optional; without it rate limiting stays in-process.
	Redis    *redis.Client
	Checkers []handlers.ReadinessChecker
}

func NewRouter(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Auth(cfg.JWTSecret))
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Accept-Language", middleware.HeaderXRequestID},
		ExposedHeaders:   []string{middleware.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	readiness := handlers.NewReadinessHandler(deps.Checkers...)
	r.Get("/api/healthz", readiness.Healthz)
	r.Get("/api/readyz", readiness.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	views := handlers.NewViewHandler(deps.Registry, cfg.DefaultLocale, cfg.DisplayTimezone)

	r.Group(func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(middleware.RateLimit(deps.Redis, cfg.RLLimit, cfg.RLWindow))
		}

		r.Post("/api/activities/{eventId}/views", views.OpenView)

		r.Route("/api/views/{viewId}", func(r chi.Router) {
			r.Get("/", views.GetView)
			r.Delete("/", views.CloseView)
			r.Post("/refresh", views.Refresh)
			r.Post("/comments/{commentId}/toggle", views.ToggleExpanded)
			r.Put("/reply-target", views.StartReply)
			r.Delete("/reply-target", views.CancelReply)
			r.Put("/drafts/{field}", views.SetDraft)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/join", views.Join)
				r.Post("/leave", views.Leave)
				r.Post("/comments", views.AddComment)
				r.Delete("/comments/{commentId}", views.DeleteComment)
			})
		})
	})

	for _, prefix := range proxiedPrefixes {
		p, err := proxy.New(cfg.BackendURL, prefix, prefix)
		if err != nil {
			return nil, fmt.Errorf("proxy %s: %w", prefix, err)
		}
		r.Mount(prefix, p)
		logger.Log.Debug().Str("prefix", prefix).Str("target", cfg.BackendURL).Msg("route_proxied")
	}

	return r, nil
}
