package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/envctl/internal/compose"
	"github.com/danmuck/envctl/internal/toolchain"
)

// Composition outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeUnresolvable = "unresolvable"
	OutcomeIntegrity    = "integrity_mismatch"
	OutcomePolicy       = "policy_violation"
	OutcomeError        = "error"
)

var (
	registerOnce sync.Once

	composeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envctl",
			Subsystem: "compose",
			Name:      "attempts_total",
			Help:      "Total environment composition attempts.",
		},
		[]string{"profile", "outcome"},
	)
	composeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "envctl",
			Subsystem: "compose",
			Name:      "duration_seconds",
			Help:      "Environment composition duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"profile", "outcome"},
	)
	activations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envctl",
			Subsystem: "shell",
			Name:      "activations_total",
			Help:      "Interactive shell activations.",
		},
		[]string{"profile"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(composeAttempts, composeDuration, activations)
	})
}

func RecordCompose(profile string, err error, duration time.Duration) {
	RegisterMetrics()
	outcome := OutcomeForError(err)
	composeAttempts.WithLabelValues(profile, outcome).Inc()
	composeDuration.WithLabelValues(profile, outcome).Observe(duration.Seconds())
}

func RecordActivation(profile string) {
	RegisterMetrics()
	activations.WithLabelValues(profile).Inc()
}

// OutcomeForError maps the composition error taxonomy onto metric labels.
func OutcomeForError(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, compose.ErrUnresolvableCapability):
		return OutcomeUnresolvable
	case errors.Is(err, toolchain.ErrIntegrityMismatch):
		return OutcomeIntegrity
	case errors.Is(err, compose.ErrPolicyViolation):
		return OutcomePolicy
	default:
		return OutcomeError
	}
}
