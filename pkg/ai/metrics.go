package ai

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoringDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "melhorenem",
		Subsystem: "ai",
		Name:      "scoring_duration_seconds",
		Help:      "Duration of essay scoring requests",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider", "model"})

	scoringFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "melhorenem",
		Subsystem: "ai",
		Name:      "scoring_failures_total",
		Help:      "Number of essay scoring failures",
	}, []string{"provider", "model", "reason"})
)

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	default:
		return "upstream"
	}
}

func recordFailure(provider, model string, err error) {
	scoringFailures.WithLabelValues(provider, model, failureReason(err)).Inc()
}
