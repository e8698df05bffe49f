/*
# Module: metrics/metrics.go
Prometheus collectors for donations, gateway polls, profile lookups and cards.

## Linked Modules
- [donation/orchestrator](../donation/orchestrator.go) - Submission and outcome counters
- [services/profile](../services/profile.go) - Profile lookup counter
- [services/cards](../services/cards.go) - Active card gauge

## Tags
metrics, prometheus, observability

## Exports
Metrics, New, Handler

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "metrics/metrics.go" ;
    code:description "Prometheus collectors for donations, gateway polls, profile lookups and cards" ;
    code:linksTo [
        code:name "donation/orchestrator" ;
        code:path "../donation/orchestrator.go" ;
        code:relationship "Submission and outcome counters"
    ], [
        code:name "services/profile" ;
        code:path "../services/profile.go" ;
        code:relationship "Profile lookup counter"
    ], [
        code:name "services/cards" ;
        code:path "../services/cards.go" ;
        code:relationship "Active card gauge"
    ] ;
    code:exports :Metrics, :New, :Handler ;
    code:tags "metrics", "prometheus", "observability" .
<!-- End LinkedDoc RDF -->
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "basetree"

// Metrics owns a private registry so tests and multiple servers never collide
// on the global default registry. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	polls          *prometheus.CounterVec
	profileLookups *prometheus.CounterVec
	activeCards    prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "donation",
			Name:      "submissions_total",
			Help:      "Donation submissions that reached the payment gateway.",
		}, []string{"binding"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "donation",
			Name:      "outcomes_total",
			Help:      "Resolved donation attempts by final status.",
		}, []string{"status"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "polls_total",
			Help:      "Best-effort payment status polls by result.",
		}, []string{"result"}),
		profileLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "lookups_total",
			Help:      "Profile lookups by source.",
		}, []string{"source"}),
		activeCards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_cards",
			Help:      "Donation cards currently open.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.outcomes,
		m.polls,
		m.profileLookups,
		m.activeCards,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Submitted counts a submission sent through binding
func (m *Metrics) Submitted(binding string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(binding).Inc()
}

// Resolved counts an attempt that ended in status
func (m *Metrics) Resolved(status string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status).Inc()
}

// Polled counts a status poll by result (reference, empty, error)
func (m *Metrics) Polled(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

// ProfileLookup counts a profile read served from source (cache, neynar, error)
func (m *Metrics) ProfileLookup(source string) {
	if m == nil {
		return
	}
	m.profileLookups.WithLabelValues(source).Inc()
}

// CardOpened increments the active card gauge
func (m *Metrics) CardOpened() {
	if m == nil {
		return
	}
	m.activeCards.Inc()
}

// CardClosed decrements the active card gauge
func (m *Metrics) CardClosed() {
	if m == nil {
		return
	}
	m.activeCards.Dec()
}
