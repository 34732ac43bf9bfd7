package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/domain"
)

var (
	ParticipationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participation_requests_total",
			Help: "Join and leave requests sent to the backend, by outcome",
		},
		[]string{"action", "outcome"},
	)

	CommentMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_mutations_total",
			Help: "Comment creates and deletes sent to the backend, by outcome",
		},
		[]string{"op", "outcome"},
	)

	ViewsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_views_open",
			Help: "Activity views currently held by this replica",
		},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of calls to the activity backend",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome is the metric label for a finished backend call: "ok" or the
// failure kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
