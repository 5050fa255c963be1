// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// fakeProductRepo is an in-memory ProductRepo for builder and scorer tests.
type fakeProductRepo struct {
	products map[string][]Product
	specs    map[int64][]SpecEntry
	failWith error
}

func (f *fakeProductRepo) ByCategory(_ context.Context, category string, maxPrice int64) ([]Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]Product, 0)
	for _, p := range f.products[category] {
		if p.Status != ProductStatusOnSale || p.Price <= 0 {
			continue
		}
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) SpecsFor(_ context.Context, productIDs []int64) (map[int64][]SpecEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[int64][]SpecEntry, len(productIDs))
	for _, id := range productIDs {
		if entries, ok := f.specs[id]; ok {
			out[id] = entries
		}
	}
	return out, nil
}

func onSale(id int64, category string, price int64) Product {
	return Product{ProductID: id, Name: "p", MainCategory: category, Price: price, Status: ProductStatusOnSale}
}

func mediaProfile(categories ...string) *TasteProfile {
	return &TasteProfile{
		TasteID:               42,
		StyleLabel:            "Modern · 2인 · Living",
		RecommendedCategories: categories,
		IsActive:              true,
	}
}

func newTestBuilder(repo ProductRepo) *PortfolioBuilder {
	return NewPortfolioBuilder(DefaultConfig(), repo, zerolog.Nop())
}

func TestSelectCategoriesAppliesGates(t *testing.T) {
	// Living-only selection: kitchen and laundry categories must drop, a
	// pet category must drop without a pet.
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})
	profile := mediaProfile("tv", "refrigerator", "washer", "pet_air_purifier", "sofa")

	b := newTestBuilder(&fakeProductRepo{})
	selected, drops, err := b.SelectCategories(context.Background(), profile, ca)
	if err != nil {
		t.Fatalf("SelectCategories() error: %v", err)
	}

	want := []string{"tv", "sofa"}
	if len(selected) != len(want) || selected[0] != want[0] || selected[1] != want[1] {
		t.Errorf("selected = %v, want %v", selected, want)
	}

	droppedRules := make(map[string]string, len(drops))
	for _, d := range drops {
		droppedRules[d.Category] = d.Rule
	}
	if droppedRules["refrigerator"] != "gate:kitchen" {
		t.Errorf("refrigerator drop rule = %q", droppedRules["refrigerator"])
	}
	if droppedRules["washer"] != "gate:laundry" {
		t.Errorf("washer drop rule = %q", droppedRules["washer"])
	}
	if droppedRules["pet_air_purifier"] != "gate:pet" {
		t.Errorf("pet_air_purifier drop rule = %q", droppedRules["pet_air_purifier"])
	}
}

func TestSelectCategoriesDropsUnknownAndIllSuited(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})
	profile := mediaProfile("hovercraft", "tv", "sofa")
	profile.IllSuitedCategories = []string{"sofa"}

	b := newTestBuilder(&fakeProductRepo{})
	selected, drops, err := b.SelectCategories(context.Background(), profile, ca)
	if err != nil {
		t.Fatalf("SelectCategories() error: %v", err)
	}
	if len(selected) != 1 || selected[0] != "tv" {
		t.Errorf("selected = %v, want [tv]", selected)
	}
	if len(drops) != 2 {
		t.Errorf("drops = %v, want unknown_category and ill_suited", drops)
	}
}

func TestSelectCategoriesPyeongCap(t *testing.T) {
	// 12 pyeong caps the portfolio at 3 categories; truncation preserves
	// shortlist order.
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingStudio,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 12, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})
	profile := mediaProfile("tv", "sofa", "bed", "air_conditioner", "robot_vacuum")

	b := newTestBuilder(&fakeProductRepo{})
	selected, drops, err := b.SelectCategories(context.Background(), profile, ca)
	if err != nil {
		t.Fatalf("SelectCategories() error: %v", err)
	}

	want := []string{"tv", "sofa", "bed"}
	if len(selected) != 3 {
		t.Fatalf("selected = %v, want %v", selected, want)
	}
	for i := range want {
		if selected[i] != want[i] {
			t.Fatalf("selected = %v, want %v", selected, want)
		}
	}

	capDrops := 0
	for _, d := range drops {
		if d.Rule == "pyeong_cap" {
			capDrops++
		}
	}
	if capDrops != 2 {
		t.Errorf("pyeong_cap drops = %d, want 2", capDrops)
	}
}

func TestSelectCategoriesBudgetSanity(t *testing.T) {
	// Low budget: ceiling 5M, sanity threshold 2M. A category whose
	// cheapest eligible product costs more than 2M is dropped.
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityValue, BudgetLevel: "budget",
	})
	profile := mediaProfile("tv", "air_conditioner")

	// tv's only product costs 3M: over the 2M threshold, and also over
	// tv's 1.25M low ceiling. The sanity check sees it anyway and drops
	// the category rather than keeping it as "no eligible products".
	repo := &fakeProductRepo{products: map[string][]Product{
		"tv":              {onSale(1, "tv", 3_000_000)},
		"air_conditioner": {onSale(2, "air_conditioner", 600_000)},
	}}

	b := NewPortfolioBuilder(DefaultConfig(), repo, zerolog.Nop())
	selected, drops, err := b.SelectCategories(context.Background(), profile, ca)
	if err != nil {
		t.Fatalf("SelectCategories() error: %v", err)
	}
	if len(selected) != 1 || selected[0] != "air_conditioner" {
		t.Fatalf("selected = %v, want only air_conditioner", selected)
	}

	found := false
	for _, d := range drops {
		if d.Category == "tv" && d.Rule == "budget_sanity" {
			found = true
		}
	}
	if !found {
		t.Errorf("drops = %v, want a budget_sanity drop for tv", drops)
	}
}

func TestSelectCategoriesKeepsCategoriesWithoutProducts(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityValue, BudgetLevel: "low",
	})
	profile := mediaProfile("sofa", "bed")

	// A category with no eligible products is kept; the scorer later
	// degrades it to an empty list.
	repo := &fakeProductRepo{products: map[string][]Product{
		"sofa": {onSale(1, "sofa", 950_000)},
		"bed":  {}, // no eligible products: kept, scorer degrades
	}}

	b := newTestBuilder(repo)
	selected, _, err := b.SelectCategories(context.Background(), profile, ca)
	if err != nil {
		t.Fatalf("SelectCategories() error: %v", err)
	}
	if len(selected) != 2 {
		t.Errorf("selected = %v, want sofa and bed kept", selected)
	}
}

func TestSelectCategoriesNoViable(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceKitchen}, Pyeong: 25, Cooking: CookingOften,
		Priority: PriorityTech, BudgetLevel: "medium",
	})
	// Every shortlist entry is media-gated; kitchen-only answers drop all.
	profile := mediaProfile("tv", "soundbar", "projector")

	b := newTestBuilder(&fakeProductRepo{})
	_, _, err := b.SelectCategories(context.Background(), profile, ca)

	var noViable *NoViableCategoriesError
	if !errors.As(err, &noViable) {
		t.Fatalf("SelectCategories() error = %T, want *NoViableCategoriesError", err)
	}
	if noViable.TasteID != profile.TasteID {
		t.Errorf("TasteID = %d, want %d", noViable.TasteID, profile.TasteID)
	}
	if len(noViable.Dropped) != 3 {
		t.Errorf("Dropped = %v, want 3 drop records", noViable.Dropped)
	}
}

func TestSelectCategoriesRepoFailure(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityValue, BudgetLevel: "low",
	})
	profile := mediaProfile("sofa")

	b := newTestBuilder(&fakeProductRepo{failWith: errors.New("timeout")})
	_, _, err := b.SelectCategories(context.Background(), profile, ca)

	var repoErr *RepoError
	if !errors.As(err, &repoErr) {
		t.Fatalf("SelectCategories() error = %T, want *RepoError", err)
	}
}
