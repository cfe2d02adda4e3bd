package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the workflow-engine Prometheus metrics.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	AssignmentsTotal     prometheus.Counter
	UnassignmentsTotal   prometheus.Counter
	ValidationRejections *prometheus.CounterVec
	CandidaturesCreated  prometheus.Counter
}

// New creates and registers the workflow metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers the workflow metrics with the given
// registerer. Tests pass a private registry to read counters in isolation.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mandat_status_transitions_total",
			Help: "Mandate status transitions by from and to state.",
		}, []string{"from", "to"}),
		AssignmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mandat_assignments_total",
			Help: "Investigator assignments committed.",
		}),
		UnassignmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mandat_unassignments_total",
			Help: "Investigator unassignments committed.",
		}),
		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mandat_validation_rejections_total",
			Help: "Business-rule rejections by check.",
		}, []string{"check"}),
		CandidaturesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "mandat_candidatures_created_total",
			Help: "Candidatures created by investigators.",
		}),
	}
}

// RecordTransition counts one committed status transition.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordRejection counts one business-rule rejection for the named check.
func (m *Metrics) RecordRejection(check string) {
	if m == nil {
		return
	}
	m.ValidationRejections.WithLabelValues(check).Inc()
}
