// Package metrics exposes Prometheus counters for the concierge service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes recorded by ObserveTurn.
const (
	OutcomeAnswered  = "answered"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
	OutcomeNoData    = "no_data"
	OutcomeDiscarded = "discarded"
)

// Metrics owns a private registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	sessions        prometheus.Counter
	resets          prometheus.Counter
	turns           *prometheus.CounterVec
	fragments       prometheus.Counter
	turnDuration    prometheus.Histogram
	rejected        *prometheus.CounterVec
	knowledgeReload *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "sessions_created_total",
			Help:      "Chat sessions created.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "session_resets_total",
			Help:      "New conversation actions.",
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "turns_total",
			Help:      "Completed assistant turns by mode and outcome.",
		}, []string{"mode", "outcome"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "stream_fragments_total",
			Help:      "Streamed answer fragments written to transcripts.",
		}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "concierge",
			Name:      "turn_duration_seconds",
			Help:      "Time from accepting a question to the final assistant text.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "questions_rejected_total",
			Help:      "Questions rejected at the input boundary.",
		}, []string{"reason"}),
		knowledgeReload: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "knowledge_reloads_total",
			Help:      "Knowledge document reload attempts.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessions,
		m.resets,
		m.turns,
		m.fragments,
		m.turnDuration,
		m.rejected,
		m.knowledgeReload,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

func (m *Metrics) Fragment() {
	if m == nil {
		return
	}
	m.fragments.Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// ObserveTurn records one finished turn.
func (m *Metrics) ObserveTurn(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(mode, outcome).Inc()
	m.turnDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) KnowledgeReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.knowledgeReload.WithLabelValues(result).Inc()
}
