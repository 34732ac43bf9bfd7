package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/display"
)

type Config struct {
	AppEnv string
	Port   string

	// Activity backend
	BackendURL          string
	BackendReadTimeout  time.Duration
	BackendWriteTimeout time.Duration

	// Empty means tokens are parsed but not verified.
	JWTSecret string

	// Redis (optional: rate limiting and the participation guard)
	RedisURL string

	// Rate limit
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// RabbitMQ (optional: interaction events)
	RabbitURL      string
	RabbitExchange string

	// Tracing
	OTelEnabled  bool
	OTelEndpoint string

	// Display
	DefaultLocale   language.Tag
	DisplayTimezone *time.Location

	ViewIdleTTL        time.Duration
	CORSAllowedOrigins []string
}

// Load reads the environment (and .env when present) and fails on anything
// the service cannot start without.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getEnv("HTTP_PORT", "8080")

	// --- Backend
	cfg.BackendURL = strings.TrimRight(getEnv("BACKEND_URL", ""), "/")
	cfg.BackendReadTimeout = getDuration("BACKEND_READ_TIMEOUT", 10*time.Second)
	cfg.BackendWriteTimeout = getDuration("BACKEND_WRITE_TIMEOUT", 15*time.Second)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.RedisURL = getEnv("REDIS_URL", "")

	// --- Rate limit
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_REQUESTS_LIMIT", 100)
	cfg.RLWindow = time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second

	// --- RabbitMQ
	cfg.RabbitURL = firstNonEmpty(
		strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		strings.TrimSpace(os.Getenv("RABBIT_URL")),
	)
	cfg.RabbitExchange = firstNonEmpty(
		strings.TrimSpace(os.Getenv("RABBITMQ_EXCHANGE")),
		strings.TrimSpace(os.Getenv("RABBIT_EXCHANGE")),
		"city.events",
	)

	// --- Tracing
	cfg.OTelEnabled = getBool("OTEL_ENABLED", false)
	cfg.OTelEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg.ViewIdleTTL = getDuration("VIEW_IDLE_TTL", 30*time.Minute)
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8081,http://localhost:19006"))

	// --- Validation
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("missing BACKEND_URL")
	}
	u, err := url.Parse(cfg.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL %q", cfg.BackendURL)
	}

	locale := getEnv("DEFAULT_LOCALE", "sv")
	tag, ok := display.ParseTag(locale)
	if !ok {
		return nil, fmt.Errorf("unsupported DEFAULT_LOCALE %q", locale)
	}
	cfg.DefaultLocale = tag

	tz := getEnv("DISPLAY_TIMEZONE", "Europe/Stockholm")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tz, err)
	}
	cfg.DisplayTimezone = loc

	if cfg.RLEnabled && (cfg.RLLimit <= 0 || cfg.RLWindow <= 0) {
		return nil, fmt.Errorf("RL_REQUESTS_LIMIT and RL_WINDOW_SECONDS must be positive")
	}
	if cfg.ViewIdleTTL <= 0 {
		return nil, fmt.Errorf("VIEW_IDLE_TTL must be positive")
	}
	if cfg.AppEnv != "dev" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET (required when APP_ENV != dev)")
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		panic(fmt.Errorf("invalid boolean env %s=%q", k, v))
	}
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
