// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/metrics"
)

// Classifier deterministically maps canonical answers to a single taste
// profile. It is a pure function of the answers and the catalog snapshot:
// same inputs yield the same taste, and it performs no I/O beyond reading
// the catalog.
type Classifier struct {
	cfg     *Config
	catalog TasteProfileRepo
	logger  zerolog.Logger
}

// NewClassifier creates a classifier over the given catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClassifier(cfg *Config, catalog TasteProfileRepo, logger zerolog.Logger) *Classifier {
	return &Classifier{
		cfg:     cfg,
		catalog: catalog,
		logger:  logger.With().Str("component", "classifier").Logger(),
	}
}

// Classify returns the best-matching active taste profile for the answers.
// Exact representative matches win; otherwise weighted relaxation over all
// active profiles decides, with ties broken by ascending taste ID. Returns
// ErrCatalogEmpty when no active profiles exist.
func (c *Classifier) Classify(ctx context.Context, ca *CanonicalAnswers) (*TasteProfile, error) {
	exact, err := c.catalog.ByRepresentative(ctx, ca.RepresentativeFor())
	if err == nil {
		metrics.ClassifierExactMatches.Inc()
		c.logger.Debug().
			Int("taste_id", exact.TasteID).
			Str("main_space_key", ca.MainSpaceKey).
			Msg("exact representative match")
		return exact, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, wrapRepoErr("by_representative", err)
	}

	profiles, err := c.catalog.ActiveProfiles(ctx)
	if err != nil {
		return nil, wrapRepoErr("active_profiles", err)
	}
	if len(profiles) == 0 {
		return nil, ErrCatalogEmpty
	}

	best := profiles[0]
	bestScore := c.matchScore(ca, best)
	for _, p := range profiles[1:] {
		// Strict comparison keeps the lowest taste ID on ties; the
		// catalog orders profiles by ascending ID.
		if s := c.matchScore(ca, p); s > bestScore {
			best, bestScore = p, s
		}
	}

	metrics.ClassifierRelaxations.Inc()
	c.logger.Debug().
		Int("taste_id", best.TasteID).
		Float64("match_score", bestScore).
		Msg("weighted relaxation match")
	return best, nil
}

// matchScore sums the weights of matching discriminators between the
// answers and a profile's representative tuple. Housing type and lifestyle
// carry weights in the table but have no representative counterpart, so
// they contribute nothing here.
func (c *Classifier) matchScore(ca *CanonicalAnswers, p *TasteProfile) float64 {
	w := c.cfg.MatchWeights
	var score float64

	if c.mainSpaceMatches(ca, p.Rep.MainSpaceKey) {
		score += w.MainSpace
	}
	if p.Rep.BudgetLevel == ca.Budget {
		score += w.BudgetLevel
	}
	if HouseholdBucket(p.Rep.HouseholdSize) == ca.HouseholdBucket {
		score += w.HouseholdSize
	}
	if p.Rep.Vibe == ca.Vibe {
		score += w.Vibe
	}
	if p.Rep.Priority == ca.Priority {
		score += w.Priority
	}
	if p.Rep.HasPet == ca.HasPet {
		score += w.HasPet
	}

	return score
}

// mainSpaceMatches reports whether a representative main-space key matches
// the answers. Representative keys are a single space or "all"; a multi
// space selection matches any of its members.
func (c *Classifier) mainSpaceMatches(ca *CanonicalAnswers, repKey string) bool {
	if repKey == ca.MainSpaceKey {
		return true
	}
	if repKey == string(SpaceAll) {
		return false // answers did not select all, handled above
	}
	_, ok := ca.SpaceSet[Space(repKey)]
	return ok
}
