// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package rebuild

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/recommend/catalog"
)

// fakeStore serves a tiny fixed product catalog and records the swap.
type fakeStore struct {
	replaced []*recommend.TasteProfile
	version  int64
}

func (f *fakeStore) ByCategory(_ context.Context, category string, maxPrice int64) ([]recommend.Product, error) {
	if category != "tv" {
		return nil, nil
	}
	products := []recommend.Product{
		{ProductID: 1, Name: "TV A", MainCategory: "tv", Price: 1_000_000, Status: recommend.ProductStatusOnSale},
		{ProductID: 2, Name: "TV B", MainCategory: "tv", Price: 2_000_000, Status: recommend.ProductStatusOnSale},
	}
	if maxPrice <= 0 {
		return products, nil
	}
	var out []recommend.Product
	for _, p := range products {
		if p.Price <= maxPrice {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) SpecsFor(_ context.Context, _ []int64) (map[int64][]recommend.SpecEntry, error) {
	return map[int64][]recommend.SpecEntry{}, nil
}

func (f *fakeStore) ReplaceProfiles(_ context.Context, profiles []*recommend.TasteProfile, version int64) error {
	f.replaced = profiles
	f.version = version
	return nil
}

func TestSyntheticAnswersValidForEveryRepSpace(t *testing.T) {
	for _, space := range recommend.RepSpaces {
		rep := recommend.RepresentativeKey{
			Vibe:          recommend.VibeModern,
			HouseholdSize: 2,
			MainSpaceKey:  string(space),
			HasPet:        true,
			Priority:      recommend.PriorityTech,
			BudgetLevel:   recommend.BudgetMedium,
		}
		ca, err := SyntheticAnswers(rep)
		if err != nil {
			t.Errorf("SyntheticAnswers(%s) error = %v", space, err)
			continue
		}
		if got := ca.RepresentativeFor(); got != rep {
			t.Errorf("SyntheticAnswers(%s) round trip = %+v, want %+v", space, got, rep)
		}
	}
}

func TestCategoryAffinityBounds(t *testing.T) {
	ca, err := SyntheticAnswers(recommend.RepresentativeKey{
		Vibe:          recommend.VibeLuxury,
		HouseholdSize: 5,
		MainSpaceKey:  "all",
		HasPet:        true,
		Priority:      recommend.PriorityDesign,
		BudgetLevel:   recommend.BudgetHigh,
	})
	if err != nil {
		t.Fatalf("SyntheticAnswers() error = %v", err)
	}

	for _, info := range recommend.Categories() {
		score := categoryAffinity(info, ca)
		if score < 0 || score > 100 {
			t.Errorf("categoryAffinity(%s) = %v, want within [0, 100]", info.Name, score)
		}
	}
}

func TestRunRecomputesFullGrid(t *testing.T) {
	store := &fakeStore{}
	r := New(Config{}, recommend.DefaultConfig(), store, nil, zerolog.Nop())

	version, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if version == 0 || store.version != version {
		t.Errorf("Run() version = %d, stored %d", version, store.version)
	}
	if len(store.replaced) != 1920 {
		t.Fatalf("Run() replaced %d profiles, want 1920", len(store.replaced))
	}

	for _, p := range store.replaced {
		if !p.Rep.HasPet {
			for _, c := range p.RecommendedCategories {
				if c == "pet_air_purifier" || c == "cat_tower" {
					t.Fatalf("profile %d without a pet recommends %s", p.TasteID, c)
				}
			}
		}
		if p.Rep.MainSpaceKey == "living" {
			for _, c := range p.RecommendedCategories {
				if info, _ := recommend.CategoryByName(c); info.Gate == recommend.GateKitchen {
					t.Fatalf("living-only profile %d recommends kitchen category %s", p.TasteID, c)
				}
			}
		}
		for category, ids := range p.RecommendedProducts {
			if len(ids) != len(p.ProductScores[category]) {
				t.Fatalf("profile %d: shortlist and scores disagree for %s", p.TasteID, category)
			}
		}
	}

	// Media-gated profiles see the fake tv products.
	var sawTVShortlist bool
	for _, p := range store.replaced {
		if len(p.RecommendedProducts["tv"]) > 0 {
			sawTVShortlist = true
			break
		}
	}
	if !sawTVShortlist {
		t.Error("Run() produced no tv shortlists despite available products")
	}
}

func TestWatcherSwapsSnapshotOnRebuiltEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubsub.Close()

	store := &fakeStore{}
	holder := &catalog.Holder{}

	watcher := NewWatcher(pubsub, snapshotLoaderFunc(func(ctx context.Context) (*catalog.Snapshot, error) {
		return catalog.NewSnapshot(42, []*recommend.TasteProfile{testProfile(1)})
	}), holder, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- watcher.Serve(ctx) }()

	// Give the subscription a moment to establish before publishing.
	time.Sleep(50 * time.Millisecond)

	r := New(Config{}, recommend.DefaultConfig(), store, pubsub, zerolog.Nop())
	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for holder.Load() == nil || holder.Load().Version() != 42 {
		select {
		case <-deadline:
			t.Fatal("watcher never swapped the snapshot")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

type snapshotLoaderFunc func(ctx context.Context) (*catalog.Snapshot, error)

func (f snapshotLoaderFunc) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return f(ctx)
}

func testProfile(id int) *recommend.TasteProfile {
	return &recommend.TasteProfile{
		TasteID: id,
		Rep: recommend.RepresentativeKey{
			Vibe:          recommend.VibeModern,
			HouseholdSize: 1,
			MainSpaceKey:  "living",
			Priority:      recommend.PriorityDesign,
			BudgetLevel:   recommend.BudgetLow,
		},
		IsActive: true,
	}
}
