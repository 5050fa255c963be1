// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
)

// Note: This package has no dependencies on other internal packages beyond
// logging and metrics. The TasteProfileRepo and ProductRepo interfaces allow
// integration with the store package without creating circular imports.

// Vibe is the aesthetic axis of the onboarding questionnaire.
type Vibe string

// Enumerated vibes.
const (
	VibeModern Vibe = "modern"
	VibeCozy   Vibe = "cozy"
	VibePop    Vibe = "pop"
	VibeLuxury Vibe = "luxury"
)

// Vibes lists all valid vibes in canonical order.
var Vibes = []Vibe{VibeModern, VibeCozy, VibePop, VibeLuxury}

// Valid reports whether v is an enumerated vibe.
func (v Vibe) Valid() bool {
	switch v {
	case VibeModern, VibeCozy, VibePop, VibeLuxury:
		return true
	}
	return false
}

// HousingType is the dwelling category from the questionnaire.
type HousingType string

// Enumerated housing types.
const (
	HousingApartment HousingType = "apartment"
	HousingOfficetel HousingType = "officetel"
	HousingDetached  HousingType = "detached"
	HousingStudio    HousingType = "studio"
)

// Valid reports whether h is an enumerated housing type.
func (h HousingType) Valid() bool {
	switch h {
	case HousingApartment, HousingOfficetel, HousingDetached, HousingStudio:
		return true
	}
	return false
}

// Space is a main living space the user cares about furnishing.
type Space string

// Enumerated spaces.
const (
	SpaceLiving   Space = "living"
	SpaceBedroom  Space = "bedroom"
	SpaceKitchen  Space = "kitchen"
	SpaceDressing Space = "dressing"
	SpaceStudy    Space = "study"
	SpaceAll      Space = "all"
)

// Valid reports whether s is an enumerated space.
func (s Space) Valid() bool {
	switch s {
	case SpaceLiving, SpaceBedroom, SpaceKitchen, SpaceDressing, SpaceStudy, SpaceAll:
		return true
	}
	return false
}

// RepSpaces lists the representative main-space domain used by the taste
// catalog. Together with the other representative domains this yields the
// 4x5x4x2x4x3 = 1,920 profile grid.
var RepSpaces = []Space{SpaceLiving, SpaceBedroom, SpaceKitchen, SpaceAll}

// Cooking is the cooking-frequency answer, gated on the kitchen space.
type Cooking string

// Enumerated cooking frequencies.
const (
	CookingRarely    Cooking = "rarely"
	CookingSometimes Cooking = "sometimes"
	CookingOften     Cooking = "often"
)

// Valid reports whether c is an enumerated cooking frequency.
func (c Cooking) Valid() bool {
	switch c {
	case CookingRarely, CookingSometimes, CookingOften:
		return true
	}
	return false
}

// Laundry is the laundry-frequency answer, gated on the dressing space.
type Laundry string

// Enumerated laundry frequencies.
const (
	LaundryWeekly   Laundry = "weekly"
	LaundryFewTimes Laundry = "few_times"
	LaundryDaily    Laundry = "daily"
)

// Valid reports whether l is an enumerated laundry frequency.
func (l Laundry) Valid() bool {
	switch l {
	case LaundryWeekly, LaundryFewTimes, LaundryDaily:
		return true
	}
	return false
}

// Media is the media-consumption answer, gated on living/bedroom/study.
type Media string

// Enumerated media habits.
const (
	MediaOTT    Media = "ott"
	MediaGaming Media = "gaming"
	MediaTV     Media = "tv"
	MediaNone   Media = "none"
)

// Valid reports whether m is an enumerated media habit.
func (m Media) Valid() bool {
	switch m {
	case MediaOTT, MediaGaming, MediaTV, MediaNone:
		return true
	}
	return false
}

// Priority is the user's stated purchasing priority.
type Priority string

// Enumerated priorities.
const (
	PriorityDesign Priority = "design"
	PriorityTech   Priority = "tech"
	PriorityEco    Priority = "eco"
	PriorityValue  Priority = "value"
)

// Priorities lists all valid priorities in canonical order.
var Priorities = []Priority{PriorityDesign, PriorityTech, PriorityEco, PriorityValue}

// Valid reports whether p is an enumerated priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityDesign, PriorityTech, PriorityEco, PriorityValue:
		return true
	}
	return false
}

// BudgetLevel is the canonical three-level budget axis.
type BudgetLevel string

// Enumerated budget levels.
const (
	BudgetLow    BudgetLevel = "low"
	BudgetMedium BudgetLevel = "medium"
	BudgetHigh   BudgetLevel = "high"
)

// BudgetLevels lists all valid budget levels in canonical order.
var BudgetLevels = []BudgetLevel{BudgetLow, BudgetMedium, BudgetHigh}

// Valid reports whether b is a canonical budget level.
func (b BudgetLevel) Valid() bool {
	switch b {
	case BudgetLow, BudgetMedium, BudgetHigh:
		return true
	}
	return false
}

// Household size buckets used by the classifier and the taste catalog.
// The labels come from the questionnaire copy and are stored as-is.
const (
	Household1   = "1인"
	Household2   = "2인"
	Household34  = "3-4인"
	Household5Up = "5인이상"

	// MaxHouseholdSize is the top household answer; 5 means "5+".
	MaxHouseholdSize = 5
)

// OnboardingAnswers is the user's completed questionnaire, passed by value
// into the core. Conditional fields must be present iff their gating main
// space is selected; Validate enforces this.
type OnboardingAnswers struct {
	// Vibe is the aesthetic preference.
	Vibe Vibe `json:"vibe"`

	// HouseholdSize is the number of residents, 1..5 (5 means "5+").
	HouseholdSize int `json:"household_size"`

	// HasPet indicates a pet in the household.
	HasPet bool `json:"has_pet"`

	// HousingType is the dwelling category.
	HousingType HousingType `json:"housing_type"`

	// MainSpaces is the non-empty set of spaces to furnish.
	MainSpaces []Space `json:"main_spaces"`

	// Pyeong is the floor-area bucket (1 pyeong ~ 3.3 square meters).
	Pyeong int `json:"pyeong"`

	// Cooking is required iff kitchen or all is selected.
	Cooking Cooking `json:"cooking,omitempty"`

	// Laundry is required iff dressing or all is selected.
	Laundry Laundry `json:"laundry,omitempty"`

	// Media is required iff living, bedroom, study, or all is selected.
	Media Media `json:"media,omitempty"`

	// Priority is the purchasing priority.
	Priority Priority `json:"priority"`

	// BudgetLevel is the budget answer. Legacy aliases (budget, standard,
	// premium, luxury) are accepted and canonicalized.
	BudgetLevel string `json:"budget_level"`
}

// CanonicalAnswers is the canonicalized form of OnboardingAnswers used by the
// classifier, builder, and scorer. Produced by Canonicalize; treat as
// read-only after construction.
type CanonicalAnswers struct {
	OnboardingAnswers

	// MainSpaceKey is the sorted, comma-joined form of MainSpaces
	// (e.g. "kitchen,living"). "all" collapses the whole selection.
	MainSpaceKey string

	// SpaceSet is the membership set behind MainSpaceKey.
	SpaceSet map[Space]struct{}

	// HouseholdBucket is the classifier bucket for HouseholdSize.
	HouseholdBucket string

	// Budget is the canonical budget level after alias normalization.
	Budget BudgetLevel
}

// HasSpace reports whether the canonical selection includes s, honoring the
// "all" collapse.
func (c *CanonicalAnswers) HasSpace(s Space) bool {
	if _, ok := c.SpaceSet[SpaceAll]; ok {
		return true
	}
	_, ok := c.SpaceSet[s]
	return ok
}

// RepresentativeKey is the six-tuple identifying a taste profile within the
// enumerated grid. MainSpaceKey holds the canonical main-space key; for
// catalog rows this is always a single representative space or "all".
type RepresentativeKey struct {
	Vibe          Vibe        `json:"vibe"`
	HouseholdSize int         `json:"household_size"`
	MainSpaceKey  string      `json:"main_space_key"`
	HasPet        bool        `json:"has_pet"`
	Priority      Priority    `json:"priority"`
	BudgetLevel   BudgetLevel `json:"budget_level"`
}

// TasteProfile is one canonical taste in the bounded catalog. Rows are
// created by offline enumeration and recomputed offline; the core only
// reads them.
type TasteProfile struct {
	// TasteID is the stable unique identifier.
	TasteID int `json:"taste_id"`

	// StyleLabel is the human-readable label derived from the
	// representative tuple (e.g. "Modern · 1인 · Living").
	StyleLabel string `json:"style_label"`

	// Rep holds the six representative fields.
	Rep RepresentativeKey `json:"rep"`

	// RecommendedCategories is the ordered category shortlist.
	RecommendedCategories []string `json:"recommended_categories"`

	// IllSuitedCategories are suppressed for this taste regardless of
	// other signals. Disjoint from RecommendedCategories by invariant.
	IllSuitedCategories []string `json:"ill_suited_categories,omitempty"`

	// CategoryScores maps category name to an affinity score in [0, 100].
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`

	// RecommendedProducts maps category name to an ordered product
	// shortlist.
	RecommendedProducts map[string][]int64 `json:"recommended_products,omitempty"`

	// ProductScores parallels RecommendedProducts entry by entry.
	ProductScores map[string][]float64 `json:"product_scores,omitempty"`

	// IsActive marks the row as servable.
	IsActive bool `json:"is_active"`
}

// IllSuited reports whether category is explicitly excluded for this taste.
func (p *TasteProfile) IllSuited(category string) bool {
	for _, c := range p.IllSuitedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// PriorScore returns the catalog prior for a product within a category and
// whether the product appears in the shortlist at all.
func (p *TasteProfile) PriorScore(category string, productID int64) (float64, bool) {
	ids := p.RecommendedProducts[category]
	scores := p.ProductScores[category]
	for i, id := range ids {
		if id == productID {
			if i < len(scores) {
				return scores[i], true
			}
			return 0, false
		}
	}
	return 0, false
}

// Product is the external catalog entity the core consumes. Only on_sale
// products with a positive price are eligible for ranking.
type Product struct {
	// ProductID is the unique product identifier.
	ProductID int64 `json:"product_id"`

	// Name is the display name.
	Name string `json:"name"`

	// MainCategory is the product's category in the authoritative table.
	MainCategory string `json:"main_category"`

	// Price is the sale price in won.
	Price int64 `json:"price"`

	// Status is the sale status; only "on_sale" is eligible.
	Status string `json:"status"`
}

// ProductStatusOnSale is the only eligible product status.
const ProductStatusOnSale = "on_sale"

// SpecEntry is a structured product spec under the COMMON namespace.
type SpecEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RankedProduct is one scored product in a portfolio.
type RankedProduct struct {
	// Category is the recommended category this product belongs to.
	Category string `json:"category"`

	// ProductID identifies the product.
	ProductID int64 `json:"product_id"`

	// Name is the product display name.
	Name string `json:"name"`

	// Price is the sale price in won.
	Price int64 `json:"price"`

	// Score is the final weighted score in [0, 100], one decimal.
	Score float64 `json:"score"`

	// Rank is the 1-based position within the category.
	Rank int `json:"rank"`

	// Components is the per-factor score breakdown before weighting.
	// Only non-zero components are present.
	Components map[string]float64 `json:"components,omitempty"`

	// Reason lists the non-zero scoring components as "label=value"
	// pairs in a fixed order. The caller templates prose per locale.
	Reason string `json:"reason"`
}

// BudgetBreakdown sums the top-ranked product per category.
type BudgetBreakdown struct {
	// Total is the sum of the per-category subtotals, in won.
	Total int64 `json:"total"`

	// PerCategory maps category name to its subtotal in won.
	PerCategory map[string]int64 `json:"per_category"`
}

// PortfolioResult is the core's output artifact. It is created once per
// invocation and never mutated afterwards.
type PortfolioResult struct {
	// TasteID is the classified taste.
	TasteID int `json:"taste_id"`

	// StyleLabel is the taste's human-readable label.
	StyleLabel string `json:"style_label"`

	// Items holds ranked products in builder category order, scorer
	// order within each category.
	Items []RankedProduct `json:"items"`

	// Categories is the builder's ordered category selection, including
	// categories that ended up with no eligible products.
	Categories []string `json:"categories"`

	// Budget is the portfolio budget breakdown.
	Budget BudgetBreakdown `json:"budget"`

	// Metadata carries diagnostics and cache bookkeeping.
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata carries diagnostics for a portfolio result.
type ResultMetadata struct {
	// RequestID is the correlation ID for tracing.
	RequestID string `json:"request_id,omitempty"`

	// CatalogVersion is the taste-catalog snapshot version used.
	CatalogVersion int64 `json:"catalog_version"`

	// LatencyMS is the total pipeline latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates the result was served from the portfolio cache.
	CacheHit bool `json:"cache_hit"`

	// Candidates is the number of products considered across categories.
	Candidates int `json:"candidates"`
}

// TasteProfileRepo is the read-only taste catalog interface injected into
// the core. Implementations must never fabricate a profile.
type TasteProfileRepo interface {
	// ByID returns the active profile with the given ID, or
	// ErrProfileNotFound for unknown or inactive IDs.
	ByID(ctx context.Context, tasteID int) (*TasteProfile, error)

	// ByRepresentative returns the active profile matching the six-tuple,
	// or ErrProfileNotFound.
	ByRepresentative(ctx context.Context, rep RepresentativeKey) (*TasteProfile, error)

	// ActiveProfiles returns all active profiles ordered by ascending
	// taste ID.
	ActiveProfiles(ctx context.Context) ([]*TasteProfile, error)
}

// ProductRepo is the read-only product catalog interface injected into the
// core. Both methods operate in bulk; the scorer never issues per-product
// queries.
type ProductRepo interface {
	// ByCategory returns on_sale products in the category with
	// 0 < price <= maxPrice. maxPrice <= 0 means unbounded.
	ByCategory(ctx context.Context, category string, maxPrice int64) ([]Product, error)

	// SpecsFor returns COMMON-namespace specs for the given products in
	// a single round trip.
	SpecsFor(ctx context.Context, productIDs []int64) (map[int64][]SpecEntry, error)
}

// CatalogVersioner is optionally implemented by TasteProfileRepo
// implementations that track snapshot versions. The engine uses it for
// cache keys and result metadata.
type CatalogVersioner interface {
	// CatalogVersion returns the current snapshot version.
	CatalogVersion() int64
}

// PetFlag converts a boolean pet answer to its at-rest Y/N form.
func PetFlag(hasPet bool) string {
	if hasPet {
		return "Y"
	}
	return "N"
}

// PetFromFlag converts the at-rest Y/N form back to a boolean.
func PetFromFlag(flag string) bool {
	return flag == "Y" || flag == "y"
}
