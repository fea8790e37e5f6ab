package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for onboarding and status reconciliation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// External call latency by service and operation
	ExternalLatency *prometheus.HistogramVec

	// External call outcomes: ok, rejected, unavailable, timeout, protocol
	ExternalOutcome *prometheus.CounterVec

	// Status writes by source and result
	StatusWrites *prometheus.CounterVec

	// Webhook events by event type and result
	WebhookEvents *prometheus.CounterVec

	// Duplicate guard answers
	DuplicateChecks *prometheus.CounterVec

	// Dashboard gate decisions by action
	GateDecisions *prometheus.CounterVec
}

// New registers all metrics on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExternalLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "partner_portal_external_call_duration_seconds",
			Help:    "Duration of calls to external verification and payout services",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service", "operation"}), // service: "provider", "bank_lookup", "business_registry"

		ExternalOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_portal_external_call_outcomes_total",
			Help: "Outcomes of calls to external services",
		}, []string{"service", "operation", "outcome"}),

		StatusWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_portal_status_writes_total",
			Help: "Seller status writes by source and result",
		}, []string{"source", "result"}), // result: "changed", "unchanged", "stale", "refused"

		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_portal_webhook_events_total",
			Help: "Payout provider webhook events by type and result",
		}, []string{"event", "result"}),

		DuplicateChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_portal_duplicate_checks_total",
			Help: "Duplicate identity checks by key kind and answer",
		}, []string{"key", "result"}),

		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_portal_dashboard_gate_total",
			Help: "Dashboard gate decisions by action and status",
		}, []string{"action", "status"}),
	}
}

// ObserveExternalCall records latency and outcome of one external call
func (m *Metrics) ObserveExternalCall(service, operation, outcome string, d time.Duration) {
	if m != nil {
		m.ExternalLatency.WithLabelValues(service, operation).Observe(d.Seconds())
		m.ExternalOutcome.WithLabelValues(service, operation, outcome).Inc()
	}
}

// IncrementStatusWrite records a reconciler write
func (m *Metrics) IncrementStatusWrite(source, result string) {
	if m != nil {
		m.StatusWrites.WithLabelValues(source, result).Inc()
	}
}

// IncrementWebhookEvent records a received webhook
func (m *Metrics) IncrementWebhookEvent(event, result string) {
	if m != nil {
		m.WebhookEvents.WithLabelValues(event, result).Inc()
	}
}

// IncrementDuplicateCheck records a guard answer
func (m *Metrics) IncrementDuplicateCheck(key, result string) {
	if m != nil {
		m.DuplicateChecks.WithLabelValues(key, result).Inc()
	}
}

// IncrementGateDecision records a dashboard gate decision
func (m *Metrics) IncrementGateDecision(action, status string) {
	if m != nil {
		m.GateDecisions.WithLabelValues(action, status).Inc()
	}
}
