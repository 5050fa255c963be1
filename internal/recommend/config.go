// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation core. The tables
// are fixed and enumerated so that every factor's contribution is auditable;
// hosts tune values through the application config, not at request time.
type Config struct {
	// MatchWeights is the classifier's weighted-relaxation table.
	MatchWeights MatchWeights `json:"match_weights" koanf:"match_weights"`

	// Scoring is the product scorer's component weight table.
	Scoring ScoringWeights `json:"scoring" koanf:"scoring"`

	// Budget holds the canonical per-level budget ceilings.
	Budget BudgetConfig `json:"budget" koanf:"budget"`

	// PyeongCaps maps floor-area buckets to category caps.
	PyeongCaps PyeongCapsConfig `json:"pyeong_caps" koanf:"pyeong_caps"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains portfolio-cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// MatchWeights is the fixed discriminator weight table for weighted
// relaxation. HousingType and Lifestyle are retained for auditability; taste
// profiles carry no representative counterpart for them, so they contribute
// only when a profile does.
type MatchWeights struct {
	MainSpace     float64 `json:"main_space" koanf:"main_space"`
	HousingType   float64 `json:"housing_type" koanf:"housing_type"`
	BudgetLevel   float64 `json:"budget_level" koanf:"budget_level"`
	HouseholdSize float64 `json:"household_size" koanf:"household_size"`
	Vibe          float64 `json:"vibe" koanf:"vibe"`
	Priority      float64 `json:"priority" koanf:"priority"`
	HasPet        float64 `json:"has_pet" koanf:"has_pet"`
	Lifestyle     float64 `json:"lifestyle" koanf:"lifestyle"`
}

// ScoringWeights is the scorer's component weight table. Weights must sum
// to 1.0; each component is clipped to [0, 100] before weighting.
type ScoringWeights struct {
	CatalogPrior      float64 `json:"catalog_prior" koanf:"catalog_prior"`
	SpecMatch         float64 `json:"spec_match" koanf:"spec_match"`
	BudgetFit         float64 `json:"budget_fit" koanf:"budget_fit"`
	PriorityAlignment float64 `json:"priority_alignment" koanf:"priority_alignment"`
}

// BudgetConfig holds the canonical budget triple in won. HighCeiling of zero
// means unbounded; HighReference keeps budget-fit targets finite for the
// high level.
type BudgetConfig struct {
	LowCeiling    int64 `json:"low_ceiling" koanf:"low_ceiling"`
	MediumCeiling int64 `json:"medium_ceiling" koanf:"medium_ceiling"`
	HighReference int64 `json:"high_reference" koanf:"high_reference"`

	// SanityFraction is the low-budget sanity threshold: a category is
	// dropped when its cheapest eligible product exceeds this fraction of
	// the level ceiling.
	SanityFraction float64 `json:"sanity_fraction" koanf:"sanity_fraction"`
}

// Ceiling returns the total budget ceiling for a level. Zero means
// unbounded (high).
func (b BudgetConfig) Ceiling(level BudgetLevel) int64 {
	switch level {
	case BudgetLow:
		return b.LowCeiling
	case BudgetMedium:
		return b.MediumCeiling
	default:
		return 0
	}
}

// Reference returns the finite reference total for a level, used to derive
// per-category ceilings and budget-fit targets.
func (b BudgetConfig) Reference(level BudgetLevel) int64 {
	if c := b.Ceiling(level); c > 0 {
		return c
	}
	return b.HighReference
}

// PyeongCapsConfig maps the pyeong answer to a category cap.
type PyeongCapsConfig struct {
	SmallMaxPyeong  int `json:"small_max_pyeong" koanf:"small_max_pyeong"`
	MediumMaxPyeong int `json:"medium_max_pyeong" koanf:"medium_max_pyeong"`
	SmallCap        int `json:"small_cap" koanf:"small_cap"`
	MediumCap       int `json:"medium_cap" koanf:"medium_cap"`
	LargeCap        int `json:"large_cap" koanf:"large_cap"`
}

// CapFor returns the category cap for a pyeong value.
func (p PyeongCapsConfig) CapFor(pyeong int) int {
	switch {
	case pyeong <= p.SmallMaxPyeong:
		return p.SmallCap
	case pyeong <= p.MediumMaxPyeong:
		return p.MediumCap
	default:
		return p.LargeCap
	}
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// TopKPerCategory is the default number of products per category.
	TopKPerCategory int `json:"top_k_per_category" koanf:"top_k_per_category"`

	// MaxK caps caller-supplied k values.
	MaxK int `json:"max_k" koanf:"max_k"`
}

// CacheConfig contains portfolio-cache parameters.
type CacheConfig struct {
	// Enabled toggles the portfolio result cache.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `json:"ttl" koanf:"ttl"`
}

// DefaultConfig returns the documented default configuration: the built-in
// tables for matching and scoring, the canonical budget triple, and the
// pyeong cap table.
func DefaultConfig() *Config {
	return &Config{
		MatchWeights: MatchWeights{
			MainSpace:     1.00,
			HousingType:   0.90,
			BudgetLevel:   0.80,
			HouseholdSize: 0.70,
			Vibe:          0.60,
			Priority:      0.50,
			HasPet:        0.40,
			Lifestyle:     0.20,
		},
		Scoring: ScoringWeights{
			CatalogPrior:      0.50,
			SpecMatch:         0.30,
			BudgetFit:         0.15,
			PriorityAlignment: 0.05,
		},
		Budget: BudgetConfig{
			LowCeiling:     5_000_000,
			MediumCeiling:  20_000_000,
			HighReference:  50_000_000,
			SanityFraction: 0.40,
		},
		PyeongCaps: PyeongCapsConfig{
			SmallMaxPyeong:  15,
			MediumMaxPyeong: 30,
			SmallCap:        3,
			MediumCap:       5,
			LargeCap:        7,
		},
		Limits: LimitsConfig{
			TopKPerCategory: 3,
			MaxK:            10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"match_weights.main_space", c.MatchWeights.MainSpace},
		{"match_weights.housing_type", c.MatchWeights.HousingType},
		{"match_weights.budget_level", c.MatchWeights.BudgetLevel},
		{"match_weights.household_size", c.MatchWeights.HouseholdSize},
		{"match_weights.vibe", c.MatchWeights.Vibe},
		{"match_weights.priority", c.MatchWeights.Priority},
		{"match_weights.has_pet", c.MatchWeights.HasPet},
		{"match_weights.lifestyle", c.MatchWeights.Lifestyle},
		{"scoring.catalog_prior", c.Scoring.CatalogPrior},
		{"scoring.spec_match", c.Scoring.SpecMatch},
		{"scoring.budget_fit", c.Scoring.BudgetFit},
		{"scoring.priority_alignment", c.Scoring.PriorityAlignment},
	}
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", w.name, w.value)
		}
	}

	sum := c.Scoring.CatalogPrior + c.Scoring.SpecMatch + c.Scoring.BudgetFit + c.Scoring.PriorityAlignment
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}

	if c.Budget.LowCeiling <= 0 {
		return fmt.Errorf("budget.low_ceiling must be positive, got %d", c.Budget.LowCeiling)
	}
	if c.Budget.MediumCeiling <= c.Budget.LowCeiling {
		return fmt.Errorf("budget.medium_ceiling must exceed low_ceiling, got %d", c.Budget.MediumCeiling)
	}
	if c.Budget.HighReference <= c.Budget.MediumCeiling {
		return fmt.Errorf("budget.high_reference must exceed medium_ceiling, got %d", c.Budget.HighReference)
	}
	if c.Budget.SanityFraction <= 0 || c.Budget.SanityFraction > 1 {
		return fmt.Errorf("budget.sanity_fraction must be in (0, 1], got %v", c.Budget.SanityFraction)
	}

	caps := c.PyeongCaps
	if caps.SmallMaxPyeong <= 0 || caps.MediumMaxPyeong <= caps.SmallMaxPyeong {
		return fmt.Errorf("pyeong cap thresholds must be increasing, got %d/%d", caps.SmallMaxPyeong, caps.MediumMaxPyeong)
	}
	if caps.SmallCap <= 0 || caps.MediumCap < caps.SmallCap || caps.LargeCap < caps.MediumCap {
		return fmt.Errorf("pyeong caps must be positive and non-decreasing, got %d/%d/%d", caps.SmallCap, caps.MediumCap, caps.LargeCap)
	}

	if c.Limits.TopKPerCategory <= 0 {
		return fmt.Errorf("limits.top_k_per_category must be positive, got %d", c.Limits.TopKPerCategory)
	}
	if c.Limits.MaxK < c.Limits.TopKPerCategory {
		return fmt.Errorf("limits.max_k must be >= top_k_per_category, got %d", c.Limits.MaxK)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
