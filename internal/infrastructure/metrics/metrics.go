// Package metrics owns the prometheus registry served on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"budget-portal/internal/domain/program"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "budget_portal"

// Metrics records lifecycle and HTTP counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	programs    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	history     prometheus.Counter
	documents   *prometheus.CounterVec
	conflicts   prometheus.Counter
	requests    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		programs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "programs_total",
			Help:      "Programs created or deleted.",
		}, []string{"op"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Program status changes by source and target status.",
		}, []string{"from", "to"}),
		history: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_entries_total",
			Help:      "History entries appended.",
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents attached or detached.",
		}, []string{"op"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Stale program writes that were retried.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.programs, m.transitions, m.history, m.documents, m.conflicts, m.requests,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ProgramCreated() {
	if m == nil {
		return
	}
	m.programs.WithLabelValues("created").Inc()
}

func (m *Metrics) ProgramDeleted() {
	if m == nil {
		return
	}
	m.programs.WithLabelValues("deleted").Inc()
}

func (m *Metrics) StatusChanged(from, to program.Status) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) HistoryAppended() {
	if m == nil {
		return
	}
	m.history.Inc()
}

func (m *Metrics) DocumentsAttached(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.documents.WithLabelValues("attached").Add(float64(n))
}

func (m *Metrics) DocumentDetached() {
	if m == nil {
		return
	}
	m.documents.WithLabelValues("detached").Inc()
}

func (m *Metrics) WriteConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
