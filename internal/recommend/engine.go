// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/metrics"
)

// Engine coordinates the classifier, portfolio builder, and scorer into the
// request-scoped recommendation pipeline. It is safe for concurrent use: the
// catalog is read-only and every invocation works on its own answers
// snapshot.
type Engine struct {
	cfg     *Config
	logger  zerolog.Logger
	catalog TasteProfileRepo

	classifier *Classifier
	builder    *PortfolioBuilder
	scorer     *Scorer

	cache PortfolioCache

	// Metrics
	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// PortfolioCache stores finished portfolio results keyed by canonical
// answers and catalog version. Implementations must be safe for concurrent
// use; a miss is (nil, nil).
type PortfolioCache interface {
	// Get returns the cached result for key, or nil on miss.
	Get(ctx context.Context, key string) (*PortfolioResult, error)

	// Set stores the result under key for the given TTL.
	Set(ctx context.Context, key string, result *PortfolioResult, ttl time.Duration) error
}

// Metrics contains engine counters for observability.
type Metrics struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	ErrorCount   int64 `json:"error_count"`
}

// NewEngine creates a recommendation engine over the injected read-only
// repositories.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, catalog TasteProfileRepo, products ProductRepo, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("taste profile repo not set")
	}
	if products == nil {
		return nil, fmt.Errorf("product repo not set")
	}

	logger = logger.With().Str("component", "engine").Logger()
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		catalog:    catalog,
		classifier: NewClassifier(cfg, catalog, logger),
		builder:    NewPortfolioBuilder(cfg, products, logger),
		scorer:     NewScorer(cfg, products, logger),
	}, nil
}

// SetCache installs a portfolio cache. Without one the engine recomputes
// every request.
func (e *Engine) SetCache(c PortfolioCache) {
	e.cache = c
}

// Recommend runs the full pipeline: canonicalize, classify, select
// categories, rank products per category, assemble the portfolio. The
// output is bit-deterministic for a fixed (answers, catalog snapshot,
// product snapshot); the caller's deadline is honored at every repository
// boundary.
func (e *Engine) Recommend(ctx context.Context, answers OnboardingAnswers) (*PortfolioResult, error) {
	start := time.Now()
	e.requestCount.Add(1)

	ca, err := Canonicalize(answers)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	logger := e.logger.With().
		Str("main_space_key", ca.MainSpaceKey).
		Str("budget_level", string(ca.Budget)).
		Logger()

	version := e.catalogVersion()
	cacheKey := e.cacheKey(ca, version)
	if resp := e.tryCached(ctx, cacheKey, start, logger); resp != nil {
		return resp, nil
	}

	profile, err := e.classifier.Classify(ctx, ca)
	if err != nil {
		e.errorCount.Add(1)
		return nil, mapDeadline(err)
	}

	categories, _, err := e.builder.SelectCategories(ctx, profile, ca)
	if err != nil {
		e.errorCount.Add(1)
		return nil, mapDeadline(err)
	}

	items, candidates, err := e.rankCategories(ctx, profile, categories, ca, logger)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	result := e.buildResult(profile, categories, items, version, candidates, start)
	e.storeCached(ctx, cacheKey, result, logger)

	logger.Debug().
		Int("taste_id", profile.TasteID).
		Int("categories", len(categories)).
		Int("items", len(items)).
		Int64("latency_ms", result.Metadata.LatencyMS).
		Msg("recommendation complete")

	return result, nil
}

// rankCategories scores every selected category. A scoring failure in one
// category degrades it to an empty list instead of poisoning the whole
// portfolio; deadline expiry still aborts the pipeline.
func (e *Engine) rankCategories(ctx context.Context, profile *TasteProfile, categories []string, ca *CanonicalAnswers, logger zerolog.Logger) ([]RankedProduct, int, error) {
	items := make([]RankedProduct, 0, len(categories)*e.cfg.Limits.TopKPerCategory)
	var candidates int

	for _, category := range categories {
		ranked, considered, err := e.scorer.RankProducts(ctx, profile, category, ca, 0)
		if err != nil {
			if deadlineErr := mapDeadline(err); errors.Is(deadlineErr, ErrDeadline) {
				return nil, 0, deadlineErr
			}
			logger.Warn().
				Str("category", category).
				Err(err).
				Msg("category scoring failed, degrading to empty list")
			continue
		}
		if len(ranked) == 0 {
			metrics.EmptyCategoriesTotal.Inc()
		}
		candidates += considered
		items = append(items, ranked...)
	}

	return items, candidates, nil
}

// buildResult assembles the immutable portfolio artifact.
func (e *Engine) buildResult(profile *TasteProfile, categories []string, items []RankedProduct, version int64, candidates int, start time.Time) *PortfolioResult {
	breakdown := BudgetBreakdown{PerCategory: make(map[string]int64, len(categories))}
	for _, item := range items {
		if item.Rank != 1 {
			continue
		}
		breakdown.PerCategory[item.Category] = item.Price
		breakdown.Total += item.Price
	}

	return &PortfolioResult{
		TasteID:    profile.TasteID,
		StyleLabel: profile.StyleLabel,
		Items:      items,
		Categories: categories,
		Budget:     breakdown,
		Metadata: ResultMetadata{
			CatalogVersion: version,
			LatencyMS:      time.Since(start).Milliseconds(),
			Candidates:     candidates,
		},
	}
}

// tryCached attempts a cache hit. Cache failures are logged and treated as
// misses; the cache never gates correctness.
func (e *Engine) tryCached(ctx context.Context, key string, start time.Time, logger zerolog.Logger) *PortfolioResult {
	if e.cache == nil || !e.cfg.Cache.Enabled {
		return nil
	}

	cached, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("portfolio cache get failed")
		e.cacheMisses.Add(1)
		return nil
	}
	if cached == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	cached.Metadata.CacheHit = true
	cached.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Msg("portfolio cache hit")
	return cached
}

// storeCached writes a fresh result to the cache, best effort.
func (e *Engine) storeCached(ctx context.Context, key string, result *PortfolioResult, logger zerolog.Logger) {
	if e.cache == nil || !e.cfg.Cache.Enabled {
		return
	}
	if err := e.cache.Set(ctx, key, result, e.cfg.Cache.TTL); err != nil {
		logger.Warn().Err(err).Msg("portfolio cache set failed")
	}
}

// cacheKey derives a deterministic key from the canonical answers and the
// catalog snapshot version. Rebuilds bump the version, so stale entries age
// out naturally.
func (e *Engine) cacheKey(ca *CanonicalAnswers, version int64) string {
	return fmt.Sprintf("v%d:%s:%d:%s:%s:%d:%s:%s:%s:%s:%s",
		version,
		ca.Vibe,
		ca.HouseholdSize,
		PetFlag(ca.HasPet),
		ca.HousingType,
		ca.Pyeong,
		ca.MainSpaceKey,
		ca.Cooking,
		ca.Laundry,
		ca.Media,
		string(ca.Priority)+":"+string(ca.Budget),
	)
}

// catalogVersion reads the snapshot version when the repo tracks one.
func (e *Engine) catalogVersion() int64 {
	if v, ok := e.catalog.(CatalogVersioner); ok {
		return v.CatalogVersion()
	}
	return 0
}

// GetMetrics returns the current engine counters.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		ErrorCount:   e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.cfg.Clone()
}

// mapDeadline converts context deadline expiry into the core's Deadline
// error; other errors pass through unchanged.
func mapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrDeadline, err)
	}
	return err
}
