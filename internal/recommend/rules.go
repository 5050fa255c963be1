// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import "strconv"

// This file holds the authoritative category and spec tables. The source
// data for these lived in several inconsistent places; the tables below are
// the single curated form used by the builder and scorer.

// Gate is a conditional gating rule attached to a category.
type Gate int

// Enumerated gates.
const (
	// GateNone admits the category for any answers.
	GateNone Gate = iota
	// GateKitchen requires kitchen (or all) among the main spaces.
	GateKitchen
	// GateLaundry requires dressing (or all) among the main spaces.
	GateLaundry
	// GateMedia requires living, bedroom, or study (or all).
	GateMedia
	// GatePet requires a pet in the household.
	GatePet
)

// String returns the gate identifier used in diagnostics.
func (g Gate) String() string {
	switch g {
	case GateKitchen:
		return "kitchen"
	case GateLaundry:
		return "laundry"
	case GateMedia:
		return "media"
	case GatePet:
		return "pet"
	default:
		return "none"
	}
}

// Satisfied evaluates the gate against canonical answers. On failure the
// second return names the unmet condition for diagnostics.
func (g Gate) Satisfied(c *CanonicalAnswers) (bool, string) {
	switch g {
	case GateKitchen:
		if c.HasSpace(SpaceKitchen) {
			return true, ""
		}
		return false, "kitchen not in main_spaces"
	case GateLaundry:
		if c.HasSpace(SpaceDressing) {
			return true, ""
		}
		return false, "dressing not in main_spaces"
	case GateMedia:
		if c.HasSpace(SpaceLiving) || c.HasSpace(SpaceBedroom) || c.HasSpace(SpaceStudy) {
			return true, ""
		}
		return false, "no living, bedroom, or study in main_spaces"
	case GatePet:
		if c.HasPet {
			return true, ""
		}
		return false, "has_pet is false"
	default:
		return true, ""
	}
}

// CategoryInfo describes one product category.
type CategoryInfo struct {
	// Name is the category identifier matching Product.MainCategory.
	Name string

	// Group is the budget group the category belongs to.
	Group string

	// Fraction is the category's share of the level budget total.
	Fraction float64

	// Gate is the category's conditional gating rule.
	Gate Gate
}

// categoryTable is the authoritative category list in canonical order.
var categoryTable = []CategoryInfo{
	{Name: "refrigerator", Group: "kitchen", Fraction: 0.30, Gate: GateKitchen},
	{Name: "dishwasher", Group: "kitchen", Fraction: 0.12, Gate: GateKitchen},
	{Name: "induction", Group: "kitchen", Fraction: 0.10, Gate: GateKitchen},
	{Name: "microwave_oven", Group: "kitchen", Fraction: 0.06, Gate: GateKitchen},
	{Name: "dining_table", Group: "kitchen", Fraction: 0.12, Gate: GateKitchen},
	{Name: "washer", Group: "laundry", Fraction: 0.18, Gate: GateLaundry},
	{Name: "dryer", Group: "laundry", Fraction: 0.15, Gate: GateLaundry},
	{Name: "clothing_care", Group: "laundry", Fraction: 0.15, Gate: GateLaundry},
	{Name: "tv", Group: "media", Fraction: 0.25, Gate: GateMedia},
	{Name: "soundbar", Group: "media", Fraction: 0.08, Gate: GateMedia},
	{Name: "projector", Group: "media", Fraction: 0.15, Gate: GateMedia},
	{Name: "sofa", Group: "living", Fraction: 0.20, Gate: GateNone},
	{Name: "bed", Group: "living", Fraction: 0.22, Gate: GateNone},
	{Name: "air_conditioner", Group: "living", Fraction: 0.15, Gate: GateNone},
	{Name: "air_purifier", Group: "living", Fraction: 0.08, Gate: GateNone},
	{Name: "robot_vacuum", Group: "living", Fraction: 0.08, Gate: GateNone},
	{Name: "desk", Group: "living", Fraction: 0.08, Gate: GateNone},
	{Name: "pet_air_purifier", Group: "pet", Fraction: 0.08, Gate: GatePet},
	{Name: "cat_tower", Group: "pet", Fraction: 0.04, Gate: GatePet},
}

var categoryIndex = func() map[string]CategoryInfo {
	idx := make(map[string]CategoryInfo, len(categoryTable))
	for _, c := range categoryTable {
		idx[c.Name] = c
	}
	return idx
}()

// Categories returns the authoritative category list in canonical order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categoryTable))
	copy(out, categoryTable)
	return out
}

// CategoryByName looks up a category by name.
func CategoryByName(name string) (CategoryInfo, bool) {
	c, ok := categoryIndex[name]
	return c, ok
}

// FilterCeiling returns the per-category price ceiling for the filter
// pipeline: the category fraction of the level ceiling. Zero means
// unbounded (high budget, or unknown category).
func FilterCeiling(budget BudgetConfig, level BudgetLevel, category string) int64 {
	info, ok := categoryIndex[category]
	if !ok {
		return 0
	}
	total := budget.Ceiling(level)
	if total <= 0 {
		return 0
	}
	return int64(float64(total) * info.Fraction)
}

// BudgetTarget returns the per-category budget midpoint for a level, used
// by the budget-fit component. Always finite; high uses the reference total.
func BudgetTarget(budget BudgetConfig, level BudgetLevel, category string) int64 {
	info, ok := categoryIndex[category]
	if !ok {
		return 0
	}
	return int64(float64(budget.Reference(level)) * info.Fraction / 2)
}

// COMMON-namespace spec keys recognized by the scorer.
const (
	SpecKeyCapacity    = "capacity"
	SpecKeyNoiseLevel  = "noise_level"
	SpecKeyScreenSize  = "screen_size"
	SpecKeyFinish      = "finish"
	SpecKeyDesignAward = "design_award"
	SpecKeySmart       = "smart_features"
	SpecKeyWifi        = "wifi"
	SpecKeyEnergy      = "energy_rating"
	SpecKeyWarranty    = "warranty_years"
)

// Capacity and screen-size tiers use a shared four/three step vocabulary.
var capacityTiers = []string{"compact", "mid", "large", "xlarge"}

// capacityTierFor maps a household bucket to its preferred capacity tier.
func capacityTierFor(bucket string) string {
	switch bucket {
	case Household1:
		return "compact"
	case Household2:
		return "mid"
	case Household34:
		return "large"
	default:
		return "xlarge"
	}
}

// tierDistance returns the absolute step distance between two tiers in the
// given vocabulary, or -1 for unknown values.
func tierDistance(tiers []string, a, b string) int {
	ai, bi := -1, -1
	for i, t := range tiers {
		if t == a {
			ai = i
		}
		if t == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return -1
	}
	if ai > bi {
		return ai - bi
	}
	return bi - ai
}

// tierPoints awards 100 for an exact tier match and 50 for an adjacent one.
func tierPoints(tiers []string, want, got string) float64 {
	switch tierDistance(tiers, want, got) {
	case 0:
		return 100
	case 1:
		return 50
	default:
		return 0
	}
}

var screenTiers = []string{"small", "medium", "large"}

// screenTierFor maps a pyeong value to the preferred screen tier using the
// same buckets as the category cap table.
func screenTierFor(caps PyeongCapsConfig, pyeong int) string {
	switch {
	case pyeong <= caps.SmallMaxPyeong:
		return "small"
	case pyeong <= caps.MediumMaxPyeong:
		return "medium"
	default:
		return "large"
	}
}

// specRule awards points for one spec key given the canonical answers.
type specRule struct {
	key    string
	points func(cfg *Config, c *CanonicalAnswers, value string) float64
}

// Category membership for the per-key rules.
var (
	capacityCategories = map[string]struct{}{
		"refrigerator": {}, "washer": {}, "dryer": {}, "dishwasher": {},
	}
	noiseCategories = map[string]struct{}{
		"washer": {}, "dryer": {}, "robot_vacuum": {}, "air_purifier": {}, "pet_air_purifier": {},
	}
	screenCategories = map[string]struct{}{
		"tv": {}, "projector": {},
	}
)

// relevantSpecRules returns the fixed, ordered rule list for a category.
// Rule order is part of the contract: the spec-match average depends only on
// the category and the product's spec values, never on map iteration.
func relevantSpecRules(category string) []specRule {
	rules := make([]specRule, 0, 4)

	if _, ok := capacityCategories[category]; ok {
		rules = append(rules, specRule{
			key: SpecKeyCapacity,
			points: func(_ *Config, c *CanonicalAnswers, value string) float64 {
				return tierPoints(capacityTiers, capacityTierFor(c.HouseholdBucket), value)
			},
		})
	}

	if _, ok := noiseCategories[category]; ok {
		rules = append(rules, specRule{
			key: SpecKeyNoiseLevel,
			points: func(_ *Config, c *CanonicalAnswers, value string) float64 {
				switch value {
				case "low":
					if c.HasPet {
						return 100
					}
					return 40
				case "mid":
					return 20
				default:
					return 0
				}
			},
		})
	}

	if _, ok := screenCategories[category]; ok {
		rules = append(rules, specRule{
			key: SpecKeyScreenSize,
			points: func(cfg *Config, c *CanonicalAnswers, value string) float64 {
				return tierPoints(screenTiers, screenTierFor(cfg.PyeongCaps, c.Pyeong), value)
			},
		})
	}

	// Finish and design recognition apply to every category.
	rules = append(rules,
		specRule{
			key: SpecKeyFinish,
			points: func(_ *Config, c *CanonicalAnswers, value string) float64 {
				if value == "premium" && c.Vibe == VibeLuxury {
					return 100
				}
				return 0
			},
		},
		specRule{
			key: SpecKeyDesignAward,
			points: func(_ *Config, c *CanonicalAnswers, value string) float64 {
				if value == "Y" && (c.Vibe == VibeModern || c.Vibe == VibeLuxury) {
					return 80
				}
				return 0
			},
		},
	)

	return rules
}

// priorityRule awards points for one spec key under a purchasing priority.
type priorityRule struct {
	key    string
	points func(value string) float64
}

func yesPoints(value string) float64 {
	if value == "Y" {
		return 100
	}
	return 0
}

func energyPoints(value string) float64 {
	// Korean energy ratings: 1 is best.
	switch value {
	case "1":
		return 100
	case "2":
		return 60
	default:
		return 0
	}
}

func warrantyPoints(value string) float64 {
	years, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	switch {
	case years >= 3:
		return 100
	case years == 2:
		return 50
	default:
		return 0
	}
}

// priorityRules maps each priority to its fixed spec subset.
var priorityRules = map[Priority][]priorityRule{
	PriorityDesign: {
		{key: SpecKeyFinish, points: func(v string) float64 {
			if v == "premium" {
				return 100
			}
			return 0
		}},
		{key: SpecKeyDesignAward, points: yesPoints},
	},
	PriorityTech: {
		{key: SpecKeySmart, points: yesPoints},
		{key: SpecKeyWifi, points: yesPoints},
	},
	PriorityEco: {
		{key: SpecKeyEnergy, points: energyPoints},
	},
	PriorityValue: {
		{key: SpecKeyEnergy, points: energyPoints},
		{key: SpecKeyWarranty, points: warrantyPoints},
	},
}
