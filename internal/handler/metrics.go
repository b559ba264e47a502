package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of successfully placed orders",
		},
	)

	ordersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Total number of rejected order placements",
		},
	)

	ordersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "orders",
			Name:      "cancelled_total",
			Help:      "Total number of cancelled orders",
		},
	)

	insufficientStock = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "orders",
			Name:      "insufficient_stock_total",
			Help:      "Total number of placements that failed on stock",
		},
	)

	statusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "orders",
			Name:      "status_updates_total",
			Help:      "Total number of administrative status updates",
		},
		[]string{"status"},
	)
)

var (
	paymentsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "payments_consumer",
			Name:      "applied_total",
			Help:      "Total number of applied payment results",
		},
	)

	paymentsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "payments_consumer",
			Name:      "failed_total",
			Help:      "Total number of payment results that failed to apply",
		},
	)

	paymentsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shop_backend",
			Subsystem: "payments_consumer",
			Name:      "dlq_total",
			Help:      "Total number of payment results written to DLQ",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		ordersPlaced,
		ordersRejected,
		ordersCancelled,
		insufficientStock,
		statusUpdates,

		paymentsApplied,
		paymentsFailed,
		paymentsDLQ,
	)
}
