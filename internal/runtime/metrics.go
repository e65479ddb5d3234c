package runtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the runtime's Prometheus collectors.
type Metrics struct {
	Transactions *prometheus.CounterVec
	Instructions *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	Duration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mscp_transactions_total",
			Help: "Transactions submitted, by outcome.",
		}, []string{"status"}),
		Instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mscp_instructions_total",
			Help: "Instructions executed, by program and outcome.",
		}, []string{"program", "status"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mscp_rejections_total",
			Help: "Rejected transactions, by error code.",
		}, []string{"code"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mscp_transaction_duration_seconds",
			Help:    "Wall time spent executing a transaction.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Instructions, m.Rejections, m.Duration)
	}
	return m
}
