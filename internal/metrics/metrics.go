package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrderTransitionsTotal counts attempted order state transitions by event and result
	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmart_order_transitions_total",
			Help: "Total number of order state transitions",
		},
		[]string{"event", "result"}, // result: ok/rejected/error
	)

	// ClaimConflictsTotal counts claim attempts lost to another electrician
	ClaimConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmart_claim_conflicts_total",
			Help: "Total number of claim attempts that lost the race",
		},
	)

	// PaymentsTotal counts payment records by type and final status
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmart_payments_total",
			Help: "Total number of payments by type and status",
		},
		[]string{"type", "status"},
	)

	// GatewayRequestDuration observes payment gateway round trip time
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixmart_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// ReconcilerSweepsTotal counts reconciler sweeps by result
	ReconcilerSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmart_reconciler_sweeps_total",
			Help: "Total number of reconciler sweeps",
		},
		[]string{"result"}, // result: ok/skipped/error
	)

	// ReconcilerClosedTotal counts orders force-closed by the reconciler
	ReconcilerClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmart_reconciler_closed_total",
			Help: "Total number of orders closed by prepayment timeout",
		},
	)
)
