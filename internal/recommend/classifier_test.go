// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// fakeCatalog is an in-memory TasteProfileRepo for classifier tests.
type fakeCatalog struct {
	profiles []*TasteProfile
	failWith error
}

func (f *fakeCatalog) ByID(_ context.Context, tasteID int) (*TasteProfile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.profiles {
		if p.TasteID == tasteID && p.IsActive {
			return p, nil
		}
	}
	return nil, fmt.Errorf("taste %d: %w", tasteID, ErrProfileNotFound)
}

func (f *fakeCatalog) ByRepresentative(_ context.Context, rep RepresentativeKey) (*TasteProfile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.profiles {
		if p.Rep == rep && p.IsActive {
			return p, nil
		}
	}
	return nil, fmt.Errorf("representative %+v: %w", rep, ErrProfileNotFound)
}

func (f *fakeCatalog) ActiveProfiles(_ context.Context) ([]*TasteProfile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]*TasteProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func profileWithRep(id int, rep RepresentativeKey) *TasteProfile {
	return &TasteProfile{
		TasteID:  id,
		Rep:      rep,
		IsActive: true,
	}
}

func newTestClassifier(t *testing.T, profiles ...*TasteProfile) (*Classifier, *fakeCatalog) {
	t.Helper()
	cat := &fakeCatalog{profiles: profiles}
	return NewClassifier(DefaultConfig(), cat, zerolog.Nop()), cat
}

func TestClassifyExactMatchWins(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 20, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})

	exact := profileWithRep(10, ca.RepresentativeFor())
	// A near miss that weighted relaxation would also score highly.
	near := ca.RepresentativeFor()
	near.Vibe = VibeCozy
	other := profileWithRep(3, near)

	c, _ := newTestClassifier(t, other, exact)
	got, err := c.Classify(context.Background(), ca)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if got.TasteID != 10 {
		t.Errorf("Classify() = taste %d, want the exact match 10", got.TasteID)
	}
}

func TestClassifyWeightedRelaxation(t *testing.T) {
	// Selection is kitchen+living, so no single-space representative is
	// exact and relaxation decides.
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving, SpaceKitchen}, Pyeong: 20,
		Cooking: CookingSometimes, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})

	// Matches main space (living is a member), budget, household, vibe,
	// priority, pet: the strongest candidate.
	strong := profileWithRep(7, RepresentativeKey{
		Vibe: VibeModern, HouseholdSize: 2, MainSpaceKey: "living",
		Priority: PriorityTech, BudgetLevel: BudgetMedium,
	})
	// Misses main space (weight 1.0) but matches everything else.
	weak := profileWithRep(2, RepresentativeKey{
		Vibe: VibeModern, HouseholdSize: 2, MainSpaceKey: "bedroom",
		Priority: PriorityTech, BudgetLevel: BudgetMedium,
	})

	c, _ := newTestClassifier(t, weak, strong)
	got, err := c.Classify(context.Background(), ca)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if got.TasteID != 7 {
		t.Errorf("Classify() = taste %d, want 7", got.TasteID)
	}
}

func TestClassifyTieBreaksOnLowestTasteID(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving, SpaceKitchen}, Pyeong: 20,
		Cooking: CookingSometimes, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})

	// Two identical-scoring candidates; the catalog orders by ascending
	// ID, so the lower ID must win.
	repA := RepresentativeKey{
		Vibe: VibeModern, HouseholdSize: 2, MainSpaceKey: "living",
		Priority: PriorityTech, BudgetLevel: BudgetMedium,
	}
	repB := repA
	repB.MainSpaceKey = "kitchen"

	c, _ := newTestClassifier(t, profileWithRep(4, repA), profileWithRep(9, repB))
	got, err := c.Classify(context.Background(), ca)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if got.TasteID != 4 {
		t.Errorf("Classify() = taste %d, want the lowest tied ID 4", got.TasteID)
	}
}

func TestClassifyEmptyCatalog(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 20, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})

	c, _ := newTestClassifier(t)
	_, err := c.Classify(context.Background(), ca)
	if !errors.Is(err, ErrCatalogEmpty) {
		t.Errorf("Classify() error = %v, want ErrCatalogEmpty", err)
	}
}

func TestClassifyWrapsRepoFailures(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 20, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	})

	cat := &fakeCatalog{failWith: errors.New("connection reset")}
	c := NewClassifier(DefaultConfig(), cat, zerolog.Nop())

	_, err := c.Classify(context.Background(), ca)
	var repoErr *RepoError
	if !errors.As(err, &repoErr) {
		t.Fatalf("Classify() error = %T, want *RepoError", err)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	ca := canonical(t, OnboardingAnswers{
		Vibe: VibeCozy, HouseholdSize: 4, HousingType: HousingDetached,
		MainSpaces: []Space{SpaceBedroom, SpaceKitchen}, Pyeong: 35,
		Cooking: CookingOften, Media: MediaTV,
		Priority: PriorityEco, BudgetLevel: "high",
	})

	var profiles []*TasteProfile
	id := 0
	for _, vibe := range Vibes {
		for _, space := range RepSpaces {
			id++
			profiles = append(profiles, profileWithRep(id, RepresentativeKey{
				Vibe: vibe, HouseholdSize: 4, MainSpaceKey: string(space),
				Priority: PriorityEco, BudgetLevel: BudgetHigh,
			}))
		}
	}

	c, _ := newTestClassifier(t, profiles...)
	first, err := c.Classify(context.Background(), ca)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := c.Classify(context.Background(), ca)
		if err != nil {
			t.Fatalf("Classify() error: %v", err)
		}
		if again.TasteID != first.TasteID {
			t.Fatalf("run %d classified taste %d, first run %d", i, again.TasteID, first.TasteID)
		}
	}
}
