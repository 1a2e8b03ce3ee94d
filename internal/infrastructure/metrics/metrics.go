package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersInitiated prometheus.Counter
	TransfersExecuted  prometheus.Counter
	TransferErrors     *prometheus.CounterVec
	TransferAmount     prometheus.Histogram

	// TAN metrics
	TANVerifications *prometheus.CounterVec
	TANsSwept        prometheus.Counter

	// P2P metrics
	P2PTransfers prometheus.Counter

	// Standing order metrics
	StandingOrdersExecuted prometheus.Counter
	StandingOrderFailures  prometheus.Counter
	SchedulerRuns          prometheus.Counter
	SchedulerDuration      prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_transfers_initiated_total",
			Help: "Total number of transfers initiated",
		}),
		TransfersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_transfers_executed_total",
			Help: "Total number of transfers executed",
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanbank_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tanbank_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// TAN metrics
		TANVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanbank_tan_verifications_total",
				Help: "Total TAN verification attempts by result",
			},
			[]string{"result"},
		),
		TANsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_tans_swept_total",
			Help: "Total transfers expired by the TAN sweep",
		}),

		// P2P metrics
		P2PTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_p2p_transfers_total",
			Help: "Total number of peer-to-peer transfers",
		}),

		// Standing order metrics
		StandingOrdersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_standing_orders_executed_total",
			Help: "Total number of standing order runs executed",
		}),
		StandingOrderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_standing_order_failures_total",
			Help: "Total number of failed standing order runs",
		}),
		SchedulerRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tanbank_scheduler_runs_total",
			Help: "Total number of scheduler passes",
		}),
		SchedulerDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tanbank_scheduler_duration_seconds",
			Help:    "Duration of scheduler passes",
			Buckets: prometheus.DefBuckets,
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanbank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tanbank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Authentication metrics
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanbank_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
	}
}
