// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PortfolioBuilder turns a taste profile plus session constraints into a
// small ordered list of categories to recommend.
type PortfolioBuilder struct {
	cfg      *Config
	products ProductRepo
	logger   zerolog.Logger
}

// NewPortfolioBuilder creates a builder over the given product repo. The
// repo is consulted only for the low-budget sanity cap.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPortfolioBuilder(cfg *Config, products ProductRepo, logger zerolog.Logger) *PortfolioBuilder {
	return &PortfolioBuilder{
		cfg:      cfg,
		products: products,
		logger:   logger.With().Str("component", "portfolio").Logger(),
	}
}

// SelectCategories applies the profile shortlist, ill-suited suppression,
// conditional gating, the pyeong cap, and the low-budget sanity cap, in that
// order. It returns the surviving categories in shortlist order together
// with a drop record per removed category. When nothing survives it fails
// with NoViableCategoriesError carrying the drop diagnostics.
func (b *PortfolioBuilder) SelectCategories(ctx context.Context, profile *TasteProfile, ca *CanonicalAnswers) ([]string, []CategoryDrop, error) {
	var drops []CategoryDrop
	selected := make([]string, 0, len(profile.RecommendedCategories))

	for _, name := range profile.RecommendedCategories {
		info, known := CategoryByName(name)
		if !known {
			drops = append(drops, CategoryDrop{
				Category: name,
				Rule:     "unknown_category",
				Detail:   "not in the authoritative category table",
			})
			continue
		}

		// Snapshots reject overlapping lists, so this only fires for
		// profiles loaded from an external source.
		if profile.IllSuited(name) {
			drops = append(drops, CategoryDrop{
				Category: name,
				Rule:     "ill_suited",
				Detail:   fmt.Sprintf("suppressed for taste %d", profile.TasteID),
			})
			continue
		}

		if ok, detail := info.Gate.Satisfied(ca); !ok {
			drops = append(drops, CategoryDrop{
				Category: name,
				Rule:     "gate:" + info.Gate.String(),
				Detail:   detail,
			})
			continue
		}

		selected = append(selected, name)
	}

	selected, drops = b.applyPyeongCap(selected, drops, ca)

	selected, drops, err := b.applyBudgetSanity(ctx, selected, drops, ca)
	if err != nil {
		return nil, nil, err
	}

	if len(selected) == 0 {
		return nil, nil, &NoViableCategoriesError{TasteID: profile.TasteID, Dropped: drops}
	}

	b.logger.Debug().
		Int("taste_id", profile.TasteID).
		Int("selected", len(selected)).
		Int("dropped", len(drops)).
		Msg("categories selected")
	return selected, drops, nil
}

// applyPyeongCap truncates the selection to the floor-area cap, recording a
// drop per truncated category.
func (b *PortfolioBuilder) applyPyeongCap(selected []string, drops []CategoryDrop, ca *CanonicalAnswers) ([]string, []CategoryDrop) {
	cap := b.cfg.PyeongCaps.CapFor(ca.Pyeong)
	if len(selected) <= cap {
		return selected, drops
	}
	for _, name := range selected[cap:] {
		drops = append(drops, CategoryDrop{
			Category: name,
			Rule:     "pyeong_cap",
			Detail:   fmt.Sprintf("pyeong %d allows at most %d categories", ca.Pyeong, cap),
		})
	}
	return selected[:cap], drops
}

// applyBudgetSanity drops low-budget categories whose cheapest on-sale
// product exceeds the sanity fraction of the level ceiling. The cheapest is
// taken before the per-category ceiling: the cap exists to catch categories
// where even the entry price blows the budget, which the ceiling filter
// would otherwise hide as "no eligible products". Categories with no on-sale
// products are kept; the scorer degrades them to an empty list.
func (b *PortfolioBuilder) applyBudgetSanity(ctx context.Context, selected []string, drops []CategoryDrop, ca *CanonicalAnswers) ([]string, []CategoryDrop, error) {
	if ca.Budget != BudgetLow {
		return selected, drops, nil
	}

	threshold := int64(float64(b.cfg.Budget.Ceiling(BudgetLow)) * b.cfg.Budget.SanityFraction)
	kept := selected[:0]

	for _, name := range selected {
		products, err := b.products.ByCategory(ctx, name, 0)
		if err != nil {
			return nil, nil, wrapRepoErr("by_category", err)
		}

		cheapest := cheapestPrice(products)
		if cheapest > 0 && cheapest > threshold {
			drops = append(drops, CategoryDrop{
				Category: name,
				Rule:     "budget_sanity",
				Detail:   fmt.Sprintf("cheapest eligible product %d won exceeds %d won", cheapest, threshold),
			})
			continue
		}
		kept = append(kept, name)
	}

	return kept, drops, nil
}

// cheapestPrice returns the lowest positive price, or 0 when no product
// qualifies.
func cheapestPrice(products []Product) int64 {
	var cheapest int64
	for _, p := range products {
		if p.Price <= 0 || p.Status != ProductStatusOnSale {
			continue
		}
		if cheapest == 0 || p.Price < cheapest {
			cheapest = p.Price
		}
	}
	return cheapest
}
