// Package observability exposes prometheus counters for the security
// boundary: gateway rejections, approval decisions, and redactor activity.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters registered against a single registry
type Metrics struct {
	Registry *prometheus.Registry

	GatewayRejections *prometheus.CounterVec
	ApprovalDecisions *prometheus.CounterVec
	Redactions        *prometheus.CounterVec
}

// NewMetrics creates and registers all counters on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		GatewayRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxybridge_gateway_rejections_total",
			Help: "Inbound calls rejected by the request gateway, by reason",
		}, []string{"reason"}),
		ApprovalDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxybridge_approval_decisions_total",
			Help: "Consent decisions produced by the approval engine",
		}, []string{"category", "decision"}),
		Redactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxybridge_redactions_total",
			Help: "Secret values replaced by the redactor, by pass",
		}, []string{"pass"}),
	}

	registry.MustRegister(m.GatewayRejections, m.ApprovalDecisions, m.Redactions)
	return m
}
