package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auticonnect"

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	dialogs     *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	commitFails *prometheus.CounterVec
	mediations  *prometheus.CounterVec
	escalations prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events handled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		dialogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogs_total",
			Help:      "Dialog lifecycle transitions, by dialog and stage (started, completed, aborted).",
		}, []string{"dialog", "stage"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_rejections_total",
			Help:      "Inputs rejected by step validation.",
		}, []string{"dialog", "step"}),
		commitFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_failures_total",
			Help:      "Completed dialogs whose final write failed.",
		}, []string{"dialog"}),
		mediations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mediations_total",
			Help:      "Mediation gateway calls, by scope and result.",
		}, []string{"scope", "result"}),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Messages flagged for human attention.",
		}),
	}
	m.registry.MustRegister(
		m.events, m.latency, m.dialogs, m.rejections, m.commitFails, m.mediations, m.escalations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventHandled: func(_ context.Context, e *domain.HandledEvent) {
			m.events.WithLabelValues(string(e.Kind), e.Outcome).Inc()
			m.latency.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
		},
		OnDialogStart: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogs.WithLabelValues(string(e.Dialog), "started").Inc()
		},
		OnDialogComplete: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogs.WithLabelValues(string(e.Dialog), "completed").Inc()
		},
		OnDialogAbort: func(_ context.Context, e *domain.DialogEvent) {
			m.dialogs.WithLabelValues(string(e.Dialog), "aborted").Inc()
		},
		OnStepRejected: func(_ context.Context, e *domain.DialogEvent) {
			m.rejections.WithLabelValues(string(e.Dialog), e.Step).Inc()
		},
		OnCommitFailed: func(_ context.Context, e *domain.DialogEvent) {
			m.commitFails.WithLabelValues(string(e.Dialog)).Inc()
		},
		OnMediation: func(_ context.Context, e *domain.MediationEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.mediations.WithLabelValues(string(e.Scope), result).Inc()
			if e.Escalate {
				m.escalations.Inc()
			}
		},
	}
}
