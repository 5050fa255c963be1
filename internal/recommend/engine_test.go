// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeCache is an in-memory PortfolioCache recording Set calls.
type fakeCache struct {
	entries map[string]*PortfolioResult
	sets    int
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*PortfolioResult)}
}

func (f *fakeCache) Get(_ context.Context, key string) (*PortfolioResult, error) {
	if f.failGet {
		return nil, errors.New("cache unavailable")
	}
	return f.entries[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, result *PortfolioResult, _ time.Duration) error {
	f.sets++
	f.entries[key] = result
	return nil
}

// versionedCatalog wraps fakeCatalog with a snapshot version.
type versionedCatalog struct {
	fakeCatalog
	version int64
}

func (v *versionedCatalog) CatalogVersion() int64 { return v.version }

// engineFixture wires an engine over one living-room taste with tv and
// sofa shortlists.
func engineFixture(t *testing.T) (*Engine, *fakeProductRepo, *versionedCatalog) {
	t.Helper()

	profile := &TasteProfile{
		TasteID:    7,
		StyleLabel: "Modern · 2인 · Living",
		Rep: RepresentativeKey{
			Vibe: VibeModern, HouseholdSize: 2, MainSpaceKey: "living",
			Priority: PriorityTech, BudgetLevel: BudgetMedium,
		},
		RecommendedCategories: []string{"tv", "sofa"},
		RecommendedProducts:   map[string][]int64{"tv": {101}},
		ProductScores:         map[string][]float64{"tv": {85}},
		IsActive:              true,
	}

	cat := &versionedCatalog{version: 12}
	cat.profiles = []*TasteProfile{profile}

	repo := &fakeProductRepo{
		products: map[string][]Product{
			"tv": {
				onSale(101, "tv", 2_400_000),
				onSale(102, "tv", 2_600_000),
			},
			"sofa": {
				onSale(201, "sofa", 1_900_000),
			},
		},
		specs: map[int64][]SpecEntry{
			101: {{Key: SpecKeySmart, Value: "Y"}, {Key: SpecKeyWifi, Value: "Y"}},
		},
	}

	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	engine, err := NewEngine(cfg, cat, repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine, repo, cat
}

func fixtureAnswers() OnboardingAnswers {
	return OnboardingAnswers{
		Vibe: VibeModern, HouseholdSize: 2, HousingType: HousingApartment,
		MainSpaces: []Space{SpaceLiving}, Pyeong: 25, Media: MediaOTT,
		Priority: PriorityTech, BudgetLevel: "medium",
	}
}

func TestRecommendHappyPath(t *testing.T) {
	engine, _, _ := engineFixture(t)

	result, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	if result.TasteID != 7 {
		t.Errorf("TasteID = %d, want 7", result.TasteID)
	}
	if result.StyleLabel != "Modern · 2인 · Living" {
		t.Errorf("StyleLabel = %q", result.StyleLabel)
	}
	if len(result.Categories) != 2 || result.Categories[0] != "tv" || result.Categories[1] != "sofa" {
		t.Errorf("Categories = %v, want [tv sofa]", result.Categories)
	}
	if len(result.Items) != 3 {
		t.Fatalf("Items = %d, want 3", len(result.Items))
	}

	// Shortlisted tv wins its category on the catalog prior.
	if result.Items[0].Category != "tv" || result.Items[0].ProductID != 101 {
		t.Errorf("top tv item = %+v, want product 101", result.Items[0])
	}
	if result.Items[0].Rank != 1 || result.Items[1].Rank != 2 {
		t.Error("tv ranks not 1,2")
	}
	if result.Items[2].Category != "sofa" || result.Items[2].Rank != 1 {
		t.Errorf("sofa item = %+v, want rank 1", result.Items[2])
	}

	if result.Metadata.CatalogVersion != 12 {
		t.Errorf("CatalogVersion = %d, want 12", result.Metadata.CatalogVersion)
	}
	if result.Metadata.Candidates != 3 {
		t.Errorf("Candidates = %d, want 3", result.Metadata.Candidates)
	}
	if result.Metadata.CacheHit {
		t.Error("CacheHit = true on a cold run")
	}
}

func TestRecommendBudgetBreakdown(t *testing.T) {
	engine, _, _ := engineFixture(t)

	result, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	// Top-ranked product per category: tv 101 at 2.4M, sofa 201 at 1.9M.
	if got := result.Budget.PerCategory["tv"]; got != 2_400_000 {
		t.Errorf("PerCategory[tv] = %d", got)
	}
	if got := result.Budget.PerCategory["sofa"]; got != 1_900_000 {
		t.Errorf("PerCategory[sofa] = %d", got)
	}
	if result.Budget.Total != 4_300_000 {
		t.Errorf("Total = %d, want 4300000", result.Budget.Total)
	}
}

func TestRecommendInvalidAnswers(t *testing.T) {
	engine, _, _ := engineFixture(t)

	answers := fixtureAnswers()
	answers.Vibe = "brutalist"

	_, err := engine.Recommend(context.Background(), answers)
	var invalid *InvalidAnswersError
	if !errors.As(err, &invalid) {
		t.Fatalf("Recommend() error = %T, want *InvalidAnswersError", err)
	}
	if invalid.Field != "vibe" {
		t.Errorf("Field = %q, want vibe", invalid.Field)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	engine, err := NewEngine(cfg, &fakeCatalog{}, &fakeProductRepo{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	_, err = engine.Recommend(context.Background(), fixtureAnswers())
	if !errors.Is(err, ErrCatalogEmpty) {
		t.Errorf("Recommend() error = %v, want ErrCatalogEmpty", err)
	}
}

func TestRecommendNoViableCategories(t *testing.T) {
	engine, _, cat := engineFixture(t)

	// Kitchen-only answers against a taste whose shortlist holds only
	// media-gated and living categories relaxed onto it.
	cat.profiles[0].RecommendedCategories = []string{"tv", "soundbar"}

	answers := fixtureAnswers()
	answers.MainSpaces = []Space{SpaceKitchen}
	answers.Media = ""
	answers.Cooking = CookingSometimes

	_, err := engine.Recommend(context.Background(), answers)
	var noViable *NoViableCategoriesError
	if !errors.As(err, &noViable) {
		t.Fatalf("Recommend() error = %T, want *NoViableCategoriesError", err)
	}
}

func TestRecommendDeterministicAcrossRuns(t *testing.T) {
	engine, _, _ := engineFixture(t)

	first, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	for run := 0; run < 5; run++ {
		again, err := engine.Recommend(context.Background(), fixtureAnswers())
		if err != nil {
			t.Fatalf("Recommend() error: %v", err)
		}
		if again.TasteID != first.TasteID || len(again.Items) != len(first.Items) {
			t.Fatalf("run %d diverged structurally", run)
		}
		for i := range first.Items {
			a, b := first.Items[i], again.Items[i]
			if a.ProductID != b.ProductID || a.Score != b.Score || a.Rank != b.Rank || a.Reason != b.Reason {
				t.Fatalf("run %d item %d diverged: %+v vs %+v", run, i, a, b)
			}
		}
		if again.Budget.Total != first.Budget.Total {
			t.Fatalf("run %d budget diverged", run)
		}
	}
}

func TestRecommendMainSpaceOrderInsensitive(t *testing.T) {
	engine, _, cat := engineFixture(t)

	cat.profiles[0].Rep.MainSpaceKey = "kitchen,living"

	a := fixtureAnswers()
	a.MainSpaces = []Space{SpaceLiving, SpaceKitchen}
	a.Cooking = CookingSometimes

	b := fixtureAnswers()
	b.MainSpaces = []Space{SpaceKitchen, SpaceLiving}
	b.Cooking = CookingSometimes

	ra, err := engine.Recommend(context.Background(), a)
	if err != nil {
		t.Fatalf("Recommend(a) error: %v", err)
	}
	rb, err := engine.Recommend(context.Background(), b)
	if err != nil {
		t.Fatalf("Recommend(b) error: %v", err)
	}
	if ra.TasteID != rb.TasteID {
		t.Errorf("tastes differ for reordered selections: %d vs %d", ra.TasteID, rb.TasteID)
	}
}

func TestRecommendDegradesFailingCategory(t *testing.T) {
	engine, repo, _ := engineFixture(t)

	// A selected category with no eligible products degrades to an empty
	// list; the rest of the portfolio is unaffected.
	delete(repo.products, "sofa")

	result, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if len(result.Categories) != 2 {
		t.Errorf("Categories = %v, want sofa retained", result.Categories)
	}
	for _, item := range result.Items {
		if item.Category == "sofa" {
			t.Errorf("unexpected sofa item %+v", item)
		}
	}
	if _, ok := result.Budget.PerCategory["sofa"]; ok {
		t.Error("empty category contributed to the budget breakdown")
	}
}

func TestRecommendDeadline(t *testing.T) {
	engine, repo, _ := engineFixture(t)
	repo.failWith = context.DeadlineExceeded

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := engine.Recommend(ctx, fixtureAnswers())
	if !errors.Is(err, ErrDeadline) {
		t.Errorf("Recommend() error = %v, want ErrDeadline", err)
	}
}

func TestRecommendCacheRoundTrip(t *testing.T) {
	engine, _, _ := engineFixture(t)
	engine.cfg.Cache.Enabled = true
	cache := newFakeCache()
	engine.SetCache(cache)

	first, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first run reported a cache hit")
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	second, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second run missed the cache")
	}
	if second.TasteID != first.TasteID || second.Budget.Total != first.Budget.Total {
		t.Error("cached result differs from the computed one")
	}

	m := engine.GetMetrics()
	if m.CacheHits != 1 || m.CacheMisses != 1 {
		t.Errorf("metrics = %+v, want one hit and one miss", m)
	}
}

func TestRecommendCacheKeyedByCatalogVersion(t *testing.T) {
	engine, _, cat := engineFixture(t)
	engine.cfg.Cache.Enabled = true
	cache := newFakeCache()
	engine.SetCache(cache)

	if _, err := engine.Recommend(context.Background(), fixtureAnswers()); err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	// A rebuild bumps the version; the old entry must not serve.
	cat.version = 13
	result, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if result.Metadata.CacheHit {
		t.Error("stale cache entry served after a version bump")
	}
	if cache.sets != 2 {
		t.Errorf("cache sets = %d, want 2", cache.sets)
	}
}

func TestRecommendCacheFailureIsMiss(t *testing.T) {
	engine, _, _ := engineFixture(t)
	engine.cfg.Cache.Enabled = true
	cache := newFakeCache()
	cache.failGet = true
	engine.SetCache(cache)

	result, err := engine.Recommend(context.Background(), fixtureAnswers())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if result.Metadata.CacheHit {
		t.Error("failing cache reported a hit")
	}
}

func TestNewEngineValidation(t *testing.T) {
	bad := DefaultConfig()
	bad.Scoring.BudgetFit = 0.9
	if _, err := NewEngine(bad, &fakeCatalog{}, &fakeProductRepo{}, zerolog.Nop()); err == nil {
		t.Error("NewEngine accepted an invalid config")
	}
	if _, err := NewEngine(nil, nil, &fakeProductRepo{}, zerolog.Nop()); err == nil {
		t.Error("NewEngine accepted a nil catalog")
	}
	if _, err := NewEngine(nil, &fakeCatalog{}, nil, zerolog.Nop()); err == nil {
		t.Error("NewEngine accepted a nil product repo")
	}
}
