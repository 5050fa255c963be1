// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package metrics provides Prometheus instrumentation for the
// recommendation pipeline, the DuckDB store, the portfolio cache, and the
// HTTP surface. All metrics are registered via promauto at init time and
// served from /metrics by the API router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gustus_recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "invalid_answers", "no_viable_categories", "catalog_empty", "deadline", "repo_failure"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gustus_recommend_duration_seconds",
			Help:    "End-to-end recommendation pipeline latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ClassifierExactMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gustus_classifier_exact_matches_total",
			Help: "Classifications resolved by exact representative match",
		},
	)

	ClassifierRelaxations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gustus_classifier_relaxations_total",
			Help: "Classifications resolved by weighted relaxation",
		},
	)

	EmptyCategoriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gustus_empty_categories_total",
			Help: "Selected categories that produced no eligible products",
		},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gustus_store_query_duration_seconds",
			Help:    "Duration of DuckDB store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gustus_store_query_errors_total",
			Help: "Total DuckDB store query errors",
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gustus_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gustus_breaker_requests_total",
			Help: "Circuit breaker requests by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Portfolio cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gustus_portfolio_cache_hits_total",
			Help: "Portfolio cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gustus_portfolio_cache_misses_total",
			Help: "Portfolio cache misses",
		},
	)

	// Catalog metrics
	CatalogVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gustus_catalog_version",
			Help: "Current taste-catalog snapshot version",
		},
	)

	CatalogProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gustus_catalog_profiles",
			Help: "Active taste profiles in the current snapshot",
		},
	)

	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gustus_rebuild_duration_seconds",
			Help:    "Catalog rebuild duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gustus_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gustus_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveStoreQuery records one store query with its duration and outcome.
func ObserveStoreQuery(operation string, start time.Time, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}
