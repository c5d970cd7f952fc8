package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the PaymentMetrics output port
type PrometheusMetrics struct {
	gatewayCalls    *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// NewPrometheusMetrics registers the payment collectors with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel",
			Subsystem: "payments",
			Name:      "gateway_calls_total",
			Help:      "Calls to the payment gateway by operation and outcome.",
		}, []string{"op", "outcome"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel",
			Subsystem: "payments",
			Name:      "reconciliations_total",
			Help:      "Provider status reports applied to payments by source and outcome.",
		}, []string{"source", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travel",
			Subsystem: "payments",
			Name:      "notifications_total",
			Help:      "Notification jobs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.gatewayCalls, m.reconciliations, m.notifications)
	return m
}

func (m *PrometheusMetrics) ObserveGatewayCall(op, outcome string) {
	m.gatewayCalls.WithLabelValues(op, outcome).Inc()
}

func (m *PrometheusMetrics) ObserveReconciliation(source, outcome string) {
	m.reconciliations.WithLabelValues(source, outcome).Inc()
}

func (m *PrometheusMetrics) ObserveNotification(outcome string) {
	m.notifications.WithLabelValues(outcome).Inc()
}
