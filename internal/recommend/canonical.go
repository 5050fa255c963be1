// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"sort"
	"strings"
)

// budgetAliases canonicalizes legacy budget tokens still present in older
// onboarding records. Output is always low/medium/high.
var budgetAliases = map[string]BudgetLevel{
	"low":      BudgetLow,
	"medium":   BudgetMedium,
	"high":     BudgetHigh,
	"budget":   BudgetLow,
	"standard": BudgetMedium,
	"premium":  BudgetHigh,
	"luxury":   BudgetHigh,
}

// NormalizeBudget canonicalizes a budget answer, accepting legacy aliases.
// The second return is false for unknown tokens.
func NormalizeBudget(raw string) (BudgetLevel, bool) {
	level, ok := budgetAliases[strings.ToLower(strings.TrimSpace(raw))]
	return level, ok
}

// HouseholdBucket maps a household size (1..5) to its classifier bucket.
func HouseholdBucket(size int) string {
	switch {
	case size <= 1:
		return Household1
	case size == 2:
		return Household2
	case size <= 4:
		return Household34
	default:
		return Household5Up
	}
}

// MainSpaceKey computes the sorted, comma-joined canonical form of a
// main-space selection. A selection containing "all" collapses to "all".
// Duplicates are removed; ordering of the input never affects the key.
func MainSpaceKey(spaces []Space) string {
	uniq := make(map[Space]struct{}, len(spaces))
	for _, s := range spaces {
		if s == SpaceAll {
			return string(SpaceAll)
		}
		uniq[s] = struct{}{}
	}

	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Validate checks the answer invariants: mandatory fields present, values
// within their enumerated sets, and conditional fields present iff their
// gating main space is selected. The first violation is reported as an
// InvalidAnswersError naming the field.
func (a *OnboardingAnswers) Validate() error {
	if !a.Vibe.Valid() {
		return invalidAnswers("vibe", "unknown value %q", string(a.Vibe))
	}
	if a.HouseholdSize < 1 || a.HouseholdSize > MaxHouseholdSize {
		return invalidAnswers("household_size", "must be 1..%d, got %d", MaxHouseholdSize, a.HouseholdSize)
	}
	if !a.HousingType.Valid() {
		return invalidAnswers("housing_type", "unknown value %q", string(a.HousingType))
	}
	if len(a.MainSpaces) == 0 {
		return invalidAnswers("main_spaces", "selection must not be empty")
	}
	for _, s := range a.MainSpaces {
		if !s.Valid() {
			return invalidAnswers("main_spaces", "unknown space %q", string(s))
		}
	}
	if a.Pyeong < 1 {
		return invalidAnswers("pyeong", "must be positive, got %d", a.Pyeong)
	}
	if !a.Priority.Valid() {
		return invalidAnswers("priority", "unknown value %q", string(a.Priority))
	}
	if _, ok := NormalizeBudget(a.BudgetLevel); !ok {
		return invalidAnswers("budget_level", "unknown value %q", a.BudgetLevel)
	}

	return a.validateConditionals()
}

// validateConditionals enforces the gated lifestyle questions.
func (a *OnboardingAnswers) validateConditionals() error {
	spaces := make(map[Space]struct{}, len(a.MainSpaces))
	for _, s := range a.MainSpaces {
		spaces[s] = struct{}{}
	}
	_, all := spaces[SpaceAll]
	has := func(s Space) bool {
		if all {
			return true
		}
		_, ok := spaces[s]
		return ok
	}

	cookingGated := has(SpaceKitchen)
	if cookingGated && !a.Cooking.Valid() {
		return invalidAnswers("cooking", "required when kitchen is selected, got %q", string(a.Cooking))
	}
	if !cookingGated && a.Cooking != "" {
		return invalidAnswers("cooking", "present without a kitchen selection")
	}

	laundryGated := has(SpaceDressing)
	if laundryGated && !a.Laundry.Valid() {
		return invalidAnswers("laundry", "required when dressing is selected, got %q", string(a.Laundry))
	}
	if !laundryGated && a.Laundry != "" {
		return invalidAnswers("laundry", "present without a dressing selection")
	}

	mediaGated := has(SpaceLiving) || has(SpaceBedroom) || has(SpaceStudy)
	if mediaGated && !a.Media.Valid() {
		return invalidAnswers("media", "required when living, bedroom, or study is selected, got %q", string(a.Media))
	}
	if !mediaGated && a.Media != "" {
		return invalidAnswers("media", "present without a living, bedroom, or study selection")
	}

	return nil
}

// Canonicalize validates the answers and computes their canonical form:
// main-space key, household bucket, and normalized budget level. The result
// is a pure function of the answers; selection ordering never matters.
func Canonicalize(a OnboardingAnswers) (*CanonicalAnswers, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	budget, _ := NormalizeBudget(a.BudgetLevel)

	key := MainSpaceKey(a.MainSpaces)
	set := make(map[Space]struct{}, len(a.MainSpaces))
	if key == string(SpaceAll) {
		set[SpaceAll] = struct{}{}
	} else {
		for _, s := range a.MainSpaces {
			set[s] = struct{}{}
		}
	}

	return &CanonicalAnswers{
		OnboardingAnswers: a,
		MainSpaceKey:      key,
		SpaceSet:          set,
		HouseholdBucket:   HouseholdBucket(a.HouseholdSize),
		Budget:            budget,
	}, nil
}

// RepresentativeFor derives the representative six-tuple from canonical
// answers. It is the exact-match key into the taste catalog.
func (c *CanonicalAnswers) RepresentativeFor() RepresentativeKey {
	return RepresentativeKey{
		Vibe:          c.Vibe,
		HouseholdSize: c.HouseholdSize,
		MainSpaceKey:  c.MainSpaceKey,
		HasPet:        c.HasPet,
		Priority:      c.Priority,
		BudgetLevel:   c.Budget,
	}
}
