package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransitionMetrics tracks the transition engine's outcomes.
type TransitionMetrics struct {
	applied  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewTransitionMetrics registers the engine metrics on the provided registerer.
func NewTransitionMetrics(reg prometheus.Registerer) *TransitionMetrics {
	if reg == nil {
		return &TransitionMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transitions_applied_total",
		Help: "Applied unit transitions by event and destination phase.",
	}, []string{"event", "to_phase"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transitions_rejected_total",
		Help: "Rejected unit transitions by event and error code.",
	}, []string{"event", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_duration_seconds",
		Help:    "Duration of transition transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	reg.MustRegister(applied, rejected, latency)
	return &TransitionMetrics{
		applied:  applied,
		rejected: rejected,
		latency:  latency,
	}
}

// IncApplied increments the applied counter for the event/phase pair.
func (t *TransitionMetrics) IncApplied(event, toPhase string) {
	if t == nil || t.applied == nil {
		return
	}
	t.applied.WithLabelValues(normalizeLabel(event), normalizeLabel(toPhase)).Inc()
}

// IncRejected increments the rejected counter for the event/code pair.
func (t *TransitionMetrics) IncRejected(event, code string) {
	if t == nil || t.rejected == nil {
		return
	}
	t.rejected.WithLabelValues(normalizeLabel(event), normalizeLabel(code)).Inc()
}

// ObserveLatency records the transaction duration for the event.
func (t *TransitionMetrics) ObserveLatency(event string, duration time.Duration) {
	if t == nil || t.latency == nil {
		return
	}
	t.latency.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}
