// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides Prometheus instrumentation for Trendspotter.
//
// These gauges and counters are operational observability only. The
// experiment impression/conversion counters that back conversion-rate
// reporting live in the persisted store, not here; the Prometheus mirrors
// exist so dashboards can watch tracking volume without reading the store.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation engine metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"strategy", "outcome"}, // outcome: "ok", "error", "empty"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Recommendation generation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RecommendCandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates_scored",
			Help:    "Number of candidate items scored per request",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ScorerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_scorer_errors_total",
			Help: "Total number of per-candidate scorer failures (candidate defaulted to floor score)",
		},
		[]string{"scorer"},
	)

	RecommendBackfills = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_backfills_total",
			Help: "Total number of requests that required popularity backfill",
		},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_training_duration_seconds",
			Help:    "Duration of scorer training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// Experiment metrics
	ExperimentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_assignments_total",
			Help: "Total number of new variant assignments",
		},
		[]string{"experiment", "variant"},
	)

	ExperimentImpressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_impressions_total",
			Help: "Total number of tracked impressions",
		},
		[]string{"experiment", "variant"},
	)

	ExperimentConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_conversions_total",
			Help: "Total number of tracked conversions",
		},
		[]string{"experiment", "variant"},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "experiment_store_operation_duration_seconds",
			Help:    "Duration of experiment store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "get_or_create", "increment", "get_counters", "clear"
	)

	StoreConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "experiment_store_conflict_retries_total",
			Help: "Total number of transaction conflict retries in the store",
		},
	)

	// API metrics
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

	// Data provider metrics
	ProviderBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "provider_breaker_state",
			Help: "Data provider circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
	)

	InteractionsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_logged_total",
			Help: "Total number of interaction events logged",
		},
		[]string{"type"},
	)
)

// RecordAPIRequest records an API request with its status code and duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveRecommendation records a completed recommendation request.
func ObserveRecommendation(strategy, outcome string, candidates int, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	RecommendDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if candidates > 0 {
		RecommendCandidatesScored.Observe(float64(candidates))
	}
}
