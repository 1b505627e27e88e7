package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

var (
	validationRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "activities",
		Name:      "validation_rejections_total",
		Help:      "Activity writes refused before persistence, labeled by error kind.",
	}, []string{"kind"})

	transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "activities",
		Name:      "transitions_total",
		Help:      "Lifecycle transitions applied to activities.",
	}, []string{"from", "to"})

	batchSubmit = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "activities",
		Name:      "batch_submit_total",
		Help:      "Per-id outcomes of batch submission, labeled succeeded or failed.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(validationRejections, transitions, batchSubmit)
}

// ActivityMetrics records activity outcomes into the default registry.
type ActivityMetrics struct{}

// Rejected counts a refused write under its error kind.
func (ActivityMetrics) Rejected(kind string) {
	if kind == "" {
		return
	}
	validationRejections.WithLabelValues(kind).Inc()
}

// Transitioned counts one applied status change.
func (ActivityMetrics) Transitioned(from, to domain.Status) {
	transitions.WithLabelValues(string(from), string(to)).Inc()
}

// BatchOutcome counts one id of a batch submission.
func (ActivityMetrics) BatchOutcome(succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	batchSubmit.WithLabelValues(outcome).Inc()
}
