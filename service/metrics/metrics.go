package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Account Metrics
	accountDecodesTotal *prometheus.CounterVec
	derivationsTotal    *prometheus.CounterVec

	// Landing Metrics
	landingClassifiedTotal *prometheus.CounterVec

	// Workflow Metrics
	landingActivityDuration *prometheus.HistogramVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Account Metrics
		accountDecodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ore_account_decodes_total",
				Help: "Total number of ORE account reads by record kind and outcome",
			},
			[]string{"kind", "status"},
		),
		derivationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ore_address_derivations_total",
				Help: "Total number of address lookups by kind and cache result (hit or miss)",
			},
			[]string{"kind", "cache"},
		),

		// Landing Metrics
		landingClassifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ore_landing_classified_total",
				Help: "Total number of signatures classified by landing outcome",
			},
			[]string{"outcome"},
		),

		// Workflow Metrics
		landingActivityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landing_activity_duration_seconds",
				Help:    "Duration of landing watch activities in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"activity"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Account metric helpers

// RecordAccountDecode records the outcome of reading one ORE record.
// Status is one of "success", "not_found", "decode_error", "rpc_error".
func (m *Metrics) RecordAccountDecode(kind, status string) {
	m.accountDecodesTotal.WithLabelValues(kind, status).Inc()
}

// RecordDerivation records an address lookup against the derivation cache.
func (m *Metrics) RecordDerivation(kind string, hit bool) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	m.derivationsTotal.WithLabelValues(kind, cache).Inc()
}

// Landing metric helpers

// RecordLandingClassified records the result of one classification pass.
func (m *Metrics) RecordLandingClassified(landed, pending int) {
	m.landingClassifiedTotal.WithLabelValues("landed").Add(float64(landed))
	m.landingClassifiedTotal.WithLabelValues("pending").Add(float64(pending))
}

// Workflow metric helpers

// RecordActivityDuration records activity execution duration.
func (m *Metrics) RecordActivityDuration(activity string, duration float64) {
	m.landingActivityDuration.WithLabelValues(activity).Observe(duration)
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}
