// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package metrics provides Prometheus instrumentation for Resumefeed:
// reconciliation outcomes, catalog store operations, series pruning,
// circuit breaker state, and API endpoint latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliation metrics
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_total",
			Help: "Total number of reconcile invocations by resulting action",
		},
		[]string{"action"}, // "noop", "upserted", "removed", "removal_skipped"
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of reconcile invocations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_errors_total",
			Help: "Total number of failed reconcile invocations",
		},
		[]string{"reason"}, // "invalid_input", "unsupported_kind", "catalog"
	)

	// Series pruning metrics
	PruneRemovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prune_removals_total",
			Help: "Total number of superseded series entries removed by the pruner",
		},
	)

	Promotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotions_total",
			Help: "Total number of successor promotion attempts by outcome",
		},
		[]string{"outcome"}, // "promoted", "none", "failed"
	)

	// Catalog store metrics
	CatalogOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_op_duration_seconds",
			Help:    "Duration of catalog store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "backend"},
	)

	CatalogOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_op_errors_total",
			Help: "Total number of catalog store operation errors",
		},
		[]string{"op", "backend"},
	)

	FeedEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_entries",
			Help: "Number of entries in the continuation feed after the last list",
		},
	)

	// Circuit breaker metrics (remote catalog backend)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current count of consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_published_total",
			Help: "Total number of feed mutation events published",
		},
		[]string{"type"},
	)

	EventsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_events_relayed_total",
			Help: "Total number of feed mutation events consumed by the relay",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveCatalogOp records the duration and outcome of one catalog operation.
func ObserveCatalogOp(op, backend string, start time.Time, err error) {
	CatalogOpDuration.WithLabelValues(op, backend).Observe(time.Since(start).Seconds())
	if err != nil {
		CatalogOpErrors.WithLabelValues(op, backend).Inc()
	}
}
