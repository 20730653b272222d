// Package metrics holds the Prometheus instruments of the server. All
// recording methods are safe on a nil *Metrics so tests and tools can pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decode outcomes used as label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics provides observability for requests, queries and the member registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	QueryDuration   *prometheus.HistogramVec

	// Birth number decodes by policy and outcome
	Decodes *prometheus.CounterVec

	MemberRegistrations prometheus.Counter

	// Transfer state changes by action: requested, approved, revoked, rejected, cancelled
	Transfers *prometheus.CounterVec

	EmailsSent *prometheus.CounterVec
}

// New creates a registry with process and Go collectors and registers all
// application metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubroster_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route pattern and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),

		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubroster_db_query_duration_seconds",
			Help:    "Duration of database calls by operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"op"}),

		Decodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clubroster_birth_number_decodes_total",
			Help: "Birth number decodes by policy and outcome",
		}, []string{"policy", "outcome"}),

		MemberRegistrations: f.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_member_registrations_total",
			Help: "Total number of members registered",
		}),

		Transfers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clubroster_transfers_total",
			Help: "Transfer state changes by action",
		}, []string{"action"}),

		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clubroster_emails_sent_total",
			Help: "Outgoing e-mails by outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records the duration of an HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// ObserveQuery records the duration of a database call.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	if m != nil {
		m.QueryDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}

// IncrementDecode records a birth number decode.
func (m *Metrics) IncrementDecode(policy string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Decodes.WithLabelValues(policy, outcome).Inc()
}

// IncrementRegistrations increments the registered members counter by 1.
func (m *Metrics) IncrementRegistrations() {
	if m != nil {
		m.MemberRegistrations.Inc()
	}
}

// IncrementTransfer records a transfer state change.
func (m *Metrics) IncrementTransfer(action string) {
	if m != nil {
		m.Transfers.WithLabelValues(action).Inc()
	}
}

// IncrementEmail records an e-mail send attempt.
func (m *Metrics) IncrementEmail(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.EmailsSent.WithLabelValues(outcome).Inc()
}
