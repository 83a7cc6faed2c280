// Package metrics exposes verification counters for the HTTP hook.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "lineage-verifier/backend/pkg/errors"
)

var (
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_verifications_total",
		Help: "Verification runs by outcome.",
	}, []string{"outcome"})

	violations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_violations_total",
		Help: "Hard failures by the check that raised them.",
	}, []string{"check"})

	collisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineage_prefix_collisions_total",
		Help: "Name prefix collisions returned by successful runs.",
	})

	duration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_verification_duration_seconds",
		Help:    "Wall time of one verification run.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

// Outcome labels
const (
	OutcomePassed   = "passed"
	OutcomeViolated = "violated"
	OutcomeError    = "error"
)

// Observe records the result of one verification run and returns its outcome
func Observe(collisionCount int, err error, elapsed time.Duration) string {
	duration.Observe(elapsed.Seconds())
	if err == nil {
		runs.WithLabelValues(OutcomePassed).Inc()
		collisions.Add(float64(collisionCount))
		return OutcomePassed
	}
	if v, ok := apperrors.AsStructuralViolation(err); ok {
		runs.WithLabelValues(OutcomeViolated).Inc()
		violations.WithLabelValues(v.Check).Inc()
		return OutcomeViolated
	}
	runs.WithLabelValues(OutcomeError).Inc()
	return OutcomeError
}
