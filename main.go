package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/activity"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/handlers"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/audit"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/backend"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/config"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/logger"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/participation"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/tracing"
)

const sweepInterval = time.Minute

type publisher interface {
	activity.Publisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	log := logger.Log.With().Str("env", cfg.AppEnv).Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Tracing ----
	tp, err := tracing.Init(rootCtx, tracing.Config{
		ServiceName:    "activity-bff",
		ServiceVersion: getVersion(),
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}

	// ---- Backend ----
	client := backend.NewClient(cfg.BackendURL, backend.ClientConfig{
		ReadTimeout:  cfg.BackendReadTimeout,
		WriteTimeout: cfg.BackendWriteTimeout,
	})
	checkers := []handlers.ReadinessChecker{handlers.NewPingChecker("backend", client.Ping)}

	// ---- Redis (optional) ----
	var (
		rdb   *goredis.Client
		guard participation.Guard
	)
	if cfg.RedisURL != "" {
		rdb, err = redis.New(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without it")
		} else {
			defer rdb.Close()
			guard = redis.NewInFlightGuard(rdb, cfg.BackendWriteTimeout+5*time.Second)
			checkers = append(checkers, redis.NewChecker(rdb))
			log.Info().Msg("redis connected")
		}
	}

	// ---- RabbitMQ (optional) ----
	var pub publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, interaction events disabled")
		} else {
			pub = p
			log.Info().Str("exchange", p.Exchange()).Msg("rabbitmq publisher connected")
		}
	}

	telemetry := activity.NewTelemetry(audit.New(logger.Log), pub)
	registry := activity.NewRegistry(activity.Deps{
		Backend:   backend.NewActivityClient(client),
		Guard:     guard,
		Telemetry: telemetry,
	}, cfg.ViewIdleTTL)
	go registry.Run(rootCtx, sweepInterval)

	// ---- Router ----
	router, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Registry: registry,
		Redis:    rdb,
		Checkers: checkers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendWriteTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	registry.CloseAll()
	telemetry.Wait()
	_ = pub.Close()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

func getVersion() string {
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		return v
	}
	return "dev"
}
