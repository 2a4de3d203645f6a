package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout submissions accepted by the engine",
	})

	CheckoutOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by terminal engine state",
	}, []string{"state"})

	CheckoutRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkout submissions refused before validation",
	}, []string{"reason"})

	CartAdjustmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_adjustments_total",
		Help: "Total number of carts replaced by a server-corrected cart",
	})

	CustomDuckCleanupFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custom_duck_cleanup_failed_total",
		Help: "Total number of custom duck deletions that did not succeed during settlement",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of a full checkout attempt",
		Buckets: prometheus.DefBuckets,
	})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Latency of calls to the inventory/account backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "User-facing notifications emitted",
	}, []string{"level"})

	ReceiptsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_recorded_total",
		Help: "Receipts written to the history store",
	})

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
