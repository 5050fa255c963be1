// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package rebuild recomputes the taste catalog offline: it enumerates the
// full profile grid, derives category affinities and product shortlists for
// each profile from the live product catalog, and swaps the stored catalog
// to the new version in one transaction. A Watcher subscribes to the
// rebuilt event and hot-swaps the serving snapshot.
package rebuild

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/recommend/catalog"
)

// TopicCatalogRebuilt carries RebuiltEvent payloads after a successful swap.
const TopicCatalogRebuilt = "catalog.rebuilt"

// RebuiltEvent is the payload published on TopicCatalogRebuilt.
type RebuiltEvent struct {
	Version    int64 `json:"version"`
	Profiles   int   `json:"profiles"`
	DurationMS int64 `json:"duration_ms"`
}

// Store is the persistence surface the rebuilder needs: product reads for
// shortlist scoring plus the transactional catalog swap.
type Store interface {
	recommend.ProductRepo
	ReplaceProfiles(ctx context.Context, profiles []*recommend.TasteProfile, version int64) error
}

// Config holds rebuild tuning.
type Config struct {
	// ProfilesPerSecond limits how fast profiles are recomputed so a
	// rebuild cannot starve serving queries. Zero disables the limit.
	ProfilesPerSecond float64 `koanf:"profiles_per_second"`

	// ShortlistSize is the per-category product shortlist length stored
	// on each profile. Zero uses the engine's MaxK limit.
	ShortlistSize int `koanf:"shortlist_size"`
}

// DefaultConfig returns production rebuild defaults.
func DefaultConfig() Config {
	return Config{
		ProfilesPerSecond: 200,
		ShortlistSize:     0,
	}
}

// Rebuilder recomputes the catalog.
type Rebuilder struct {
	cfg       Config
	engineCfg *recommend.Config
	store     Store
	scorer    *recommend.Scorer
	publisher message.Publisher
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// New creates a rebuilder. publisher may be nil; the rebuilt event is then
// skipped.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, engineCfg *recommend.Config, store Store, publisher message.Publisher, logger zerolog.Logger) *Rebuilder {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ProfilesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ProfilesPerSecond), 1)
	}
	log := logger.With().Str("component", "rebuild").Logger()
	return &Rebuilder{
		cfg:       cfg,
		engineCfg: engineCfg,
		store:     store,
		scorer:    recommend.NewScorer(engineCfg, store, log),
		publisher: publisher,
		limiter:   limiter,
		logger:    log,
	}
}

// Run recomputes every profile in the grid and swaps the stored catalog.
// Returns the new catalog version.
func (r *Rebuilder) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	profiles := catalog.Enumerate()

	shortlist := r.cfg.ShortlistSize
	if shortlist <= 0 {
		shortlist = r.engineCfg.Limits.MaxK
	}

	for _, p := range profiles {
		if err := r.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rebuild paced wait: %w", err)
		}
		if err := r.recomputeProfile(ctx, p, shortlist); err != nil {
			return 0, fmt.Errorf("recompute profile %d: %w", p.TasteID, err)
		}
	}

	version := time.Now().Unix()
	if err := r.store.ReplaceProfiles(ctx, profiles, version); err != nil {
		return 0, fmt.Errorf("swap catalog: %w", err)
	}

	elapsed := time.Since(start)
	metrics.RebuildDuration.Observe(elapsed.Seconds())

	r.logger.Info().
		Int64("version", version).
		Int("profiles", len(profiles)).
		Dur("elapsed", elapsed).
		Msg("catalog rebuild complete")

	if r.publisher != nil {
		if err := r.publishRebuilt(version, len(profiles), elapsed); err != nil {
			// The swap already committed; a lost event only delays the
			// hot reload until the next poll or restart.
			r.logger.Warn().Err(err).Msg("rebuilt event publish failed")
		}
	}

	return version, nil
}

// recomputeProfile fills one enumerated profile with category affinities,
// ill-suited categories, and product shortlists.
func (r *Rebuilder) recomputeProfile(ctx context.Context, p *recommend.TasteProfile, shortlist int) error {
	ca, err := SyntheticAnswers(p.Rep)
	if err != nil {
		return err
	}

	p.RecommendedCategories = p.RecommendedCategories[:0]
	p.IllSuitedCategories = p.IllSuitedCategories[:0]
	p.CategoryScores = make(map[string]float64)
	p.RecommendedProducts = make(map[string][]int64)
	p.ProductScores = make(map[string][]float64)

	for _, info := range recommend.Categories() {
		if ok, _ := info.Gate.Satisfied(ca); !ok {
			p.IllSuitedCategories = append(p.IllSuitedCategories, info.Name)
			continue
		}
		p.RecommendedCategories = append(p.RecommendedCategories, info.Name)
		p.CategoryScores[info.Name] = categoryAffinity(info, ca)
	}

	orderByAffinity(p.RecommendedCategories, p.CategoryScores)

	for _, category := range p.RecommendedCategories {
		// The enumerated profile carries no shortlist yet, so the
		// catalog-prior component is zero here and the stored scores are
		// pure product-fit scores.
		ranked, _, err := r.scorer.RankProducts(ctx, p, category, ca, shortlist)
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			continue
		}
		ids := make([]int64, len(ranked))
		scores := make([]float64, len(ranked))
		for i, rp := range ranked {
			ids[i] = rp.ProductID
			scores[i] = rp.Score
		}
		p.RecommendedProducts[category] = ids
		p.ProductScores[category] = scores
	}

	return nil
}

func (r *Rebuilder) publishRebuilt(version int64, profiles int, elapsed time.Duration) error {
	payload, err := json.Marshal(RebuiltEvent{
		Version:    version,
		Profiles:   profiles,
		DurationMS: elapsed.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("encode rebuilt event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := r.publisher.Publish(TopicCatalogRebuilt, msg); err != nil {
		return fmt.Errorf("publish rebuilt event: %w", err)
	}
	return nil
}

// SyntheticAnswers derives canonical answers representing a grid profile.
// The non-representative axes are fixed to neutral defaults so the derived
// shortlists depend only on the representative tuple.
func SyntheticAnswers(rep recommend.RepresentativeKey) (*recommend.CanonicalAnswers, error) {
	space := recommend.Space(rep.MainSpaceKey)

	answers := recommend.OnboardingAnswers{
		Vibe:          rep.Vibe,
		HouseholdSize: rep.HouseholdSize,
		HasPet:        rep.HasPet,
		HousingType:   recommend.HousingApartment,
		MainSpaces:    []recommend.Space{space},
		Pyeong:        pyeongForHousehold(rep.HouseholdSize),
		Priority:      rep.Priority,
		BudgetLevel:   string(rep.BudgetLevel),
	}

	switch space {
	case recommend.SpaceKitchen:
		answers.Cooking = recommend.CookingSometimes
	case recommend.SpaceLiving, recommend.SpaceBedroom, recommend.SpaceStudy:
		answers.Media = recommend.MediaOTT
	case recommend.SpaceAll:
		answers.Cooking = recommend.CookingSometimes
		answers.Laundry = recommend.LaundryFewTimes
		answers.Media = recommend.MediaOTT
	}

	ca, err := recommend.Canonicalize(answers)
	if err != nil {
		return nil, fmt.Errorf("synthetic answers for %+v: %w", rep, err)
	}
	return ca, nil
}

// pyeongForHousehold maps household size to a typical dwelling size.
func pyeongForHousehold(size int) int {
	switch {
	case size <= 1:
		return 12
	case size == 2:
		return 18
	case size <= 4:
		return 28
	default:
		return 38
	}
}

// categoryAffinity scores how strongly a category fits the answers. The
// budget fraction carries most of the weight; lifestyle answers add fixed
// bumps. Values stay within [0, 100].
func categoryAffinity(info recommend.CategoryInfo, ca *recommend.CanonicalAnswers) float64 {
	score := 40 + info.Fraction*150

	switch info.Group {
	case "pet":
		if ca.HasPet {
			score += 10
		}
	case "media":
		if ca.Media == recommend.MediaOTT || ca.Media == recommend.MediaGaming {
			score += 10
		}
	case "kitchen":
		if ca.Cooking == recommend.CookingOften {
			score += 10
		}
	case "laundry":
		if ca.Laundry == recommend.LaundryDaily {
			score += 10
		}
	}

	if score > 100 {
		return 100
	}
	return score
}

// orderByAffinity sorts categories by affinity descending. The input is in
// canonical table order, so a stable sort keeps that order on ties.
func orderByAffinity(categories []string, scores map[string]float64) {
	sort.SliceStable(categories, func(i, j int) bool {
		return scores[categories[i]] > scores[categories[j]]
	})
}
