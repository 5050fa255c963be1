// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Scoring component labels, in reason-string order.
const (
	ComponentCatalogPrior      = "catalog_prior"
	ComponentSpecMatch         = "spec_match"
	ComponentBudgetFit         = "budget_fit"
	ComponentPriorityAlignment = "priority_alignment"
)

var componentOrder = []string{
	ComponentCatalogPrior,
	ComponentSpecMatch,
	ComponentBudgetFit,
	ComponentPriorityAlignment,
}

// Scorer filters, scores, and ranks concrete products for one category
// against a taste profile and session answers. All product and spec data is
// prefetched in bulk for the category's candidate set; the scoring path
// itself is purely computational.
type Scorer struct {
	cfg      *Config
	products ProductRepo
	logger   zerolog.Logger
}

// NewScorer creates a scorer over the given product repo.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScorer(cfg *Config, products ProductRepo, logger zerolog.Logger) *Scorer {
	return &Scorer{
		cfg:      cfg,
		products: products,
		logger:   logger.With().Str("component", "scorer").Logger(),
	}
}

// RankProducts returns the top-k products for a category with scores and
// component-level reasons. k <= 0 selects the configured default; k is
// capped at Limits.MaxK. An empty category yields an empty slice, never an
// error. The second return is the number of candidates considered.
func (s *Scorer) RankProducts(ctx context.Context, profile *TasteProfile, category string, ca *CanonicalAnswers, k int) ([]RankedProduct, int, error) {
	if k <= 0 {
		k = s.cfg.Limits.TopKPerCategory
	}
	if k > s.cfg.Limits.MaxK {
		k = s.cfg.Limits.MaxK
	}

	ceiling := FilterCeiling(s.cfg.Budget, ca.Budget, category)
	products, err := s.products.ByCategory(ctx, category, ceiling)
	if err != nil {
		return nil, 0, wrapRepoErr("by_category", err)
	}

	candidates := filterEligible(products, category, ceiling)
	if len(candidates) == 0 {
		return []RankedProduct{}, 0, nil
	}

	ids := make([]int64, len(candidates))
	for i, p := range candidates {
		ids[i] = p.ProductID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	specsByID, err := s.products.SpecsFor(ctx, ids)
	if err != nil {
		return nil, 0, wrapRepoErr("specs_for", err)
	}

	ranked := make([]RankedProduct, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, s.scoreProduct(profile, category, ca, p, specsByID[p.ProductID]))
	}

	// Fully deterministic ordering: score desc, then price asc, then ID asc.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Price != ranked[j].Price {
			return ranked[i].Price < ranked[j].Price
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	total := len(ranked)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked, total, nil
}

// filterEligible applies the filtering pipeline in order: on_sale status,
// category membership, positive price, and the per-category price ceiling.
// The repo already filters, but the pipeline is enforced here so injected
// repos cannot weaken the contract.
func filterEligible(products []Product, category string, ceiling int64) []Product {
	eligible := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Status != ProductStatusOnSale {
			continue
		}
		if p.MainCategory != category {
			continue
		}
		if p.Price <= 0 {
			continue
		}
		if ceiling > 0 && p.Price > ceiling {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}

// scoreProduct computes the weighted component score for one product.
func (s *Scorer) scoreProduct(profile *TasteProfile, category string, ca *CanonicalAnswers, p Product, specs []SpecEntry) RankedProduct {
	specMap := specEntryMap(specs)

	components := map[string]float64{
		ComponentCatalogPrior:      clipScore(s.catalogPrior(profile, category, p.ProductID)),
		ComponentSpecMatch:         clipScore(s.specMatch(category, ca, specMap)),
		ComponentBudgetFit:         clipScore(s.budgetFit(category, ca, p.Price)),
		ComponentPriorityAlignment: clipScore(s.priorityAlignment(ca, specMap)),
	}

	w := s.cfg.Scoring
	score := w.CatalogPrior*components[ComponentCatalogPrior] +
		w.SpecMatch*components[ComponentSpecMatch] +
		w.BudgetFit*components[ComponentBudgetFit] +
		w.PriorityAlignment*components[ComponentPriorityAlignment]

	// Drop zero components from the breakdown; the reason string carries
	// only contributing factors.
	for label, v := range components {
		if v == 0 {
			delete(components, label)
		}
	}

	return RankedProduct{
		Category:   category,
		ProductID:  p.ProductID,
		Name:       p.Name,
		Price:      p.Price,
		Score:      math.Round(score*10) / 10,
		Components: components,
		Reason:     reasonString(components),
	}
}

// catalogPrior returns the taste-catalog prior component: the stored
// shortlist score, or zero for products outside the shortlist.
func (s *Scorer) catalogPrior(profile *TasteProfile, category string, productID int64) float64 {
	prior, ok := profile.PriorScore(category, productID)
	if !ok {
		return 0
	}
	return prior
}

// specMatch averages the category's fixed spec rules over the product's
// COMMON spec values. A missing key contributes zero.
func (s *Scorer) specMatch(category string, ca *CanonicalAnswers, specs map[string]string) float64 {
	rules := relevantSpecRules(category)
	if len(rules) == 0 {
		return 0
	}

	var total float64
	for _, rule := range rules {
		if value, ok := specs[rule.key]; ok {
			total += clipScore(rule.points(s.cfg, ca, value))
		}
	}
	return total / float64(len(rules))
}

// budgetFit scores price proximity to the per-category budget midpoint:
// 100 * (1 - |price - target| / target), clipped to [0, 100].
func (s *Scorer) budgetFit(category string, ca *CanonicalAnswers, price int64) float64 {
	target := BudgetTarget(s.cfg.Budget, ca.Budget, category)
	if target <= 0 {
		return 0
	}
	diff := math.Abs(float64(price - target))
	return 100 * (1 - diff/float64(target))
}

// priorityAlignment averages the fixed spec subset for the user's priority.
func (s *Scorer) priorityAlignment(ca *CanonicalAnswers, specs map[string]string) float64 {
	rules := priorityRules[ca.Priority]
	if len(rules) == 0 {
		return 0
	}

	var total float64
	for _, rule := range rules {
		if value, ok := specs[rule.key]; ok {
			total += clipScore(rule.points(value))
		}
	}
	return total / float64(len(rules))
}

// clipScore clips a component score to [0, 100].
func clipScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// specEntryMap converts a spec slice to a key-value map. The first
// occurrence of a key wins, keeping the result independent of duplicates.
func specEntryMap(specs []SpecEntry) map[string]string {
	m := make(map[string]string, len(specs))
	for _, e := range specs {
		if _, ok := m[e.Key]; !ok {
			m[e.Key] = e.Value
		}
	}
	return m
}

// reasonString renders the non-zero components as "label=value" pairs in
// the fixed component order. The caller templates locale-specific prose.
func reasonString(components map[string]float64) string {
	parts := make([]string, 0, len(components))
	for _, label := range componentOrder {
		if v, ok := components[label]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.1f", label, v))
		}
	}
	return strings.Join(parts, ";")
}
