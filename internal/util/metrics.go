package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders committed to both stores",
	}, []string{"payment_method"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of order commits that failed",
	}, []string{"reason"})

	PartialCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_partial_commits_total",
		Help: "Orders written to the customer history but not the global table",
	})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment signature verification attempts",
	}, []string{"outcome"})

	DuplicatePaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_payments_total",
		Help: "Verify calls that matched an already committed gateway payment",
	})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_updates_total",
		Help: "Operator status updates applied",
	}, []string{"status"})

	StatusDivergencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_status_divergences_total",
		Help: "Status updates that missed the customer-side order copy",
	})

	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_reconciliations_total",
		Help: "Reconciliation replays of customer-side orders into the global table",
	}, []string{"outcome"})

	CommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_commit_latency_seconds",
		Help:    "End to end latency of the order commit pipeline",
		Buckets: prometheus.DefBuckets,
	})

	StoreWriteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_write_latency_seconds",
		Help:    "Latency of individual store writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
