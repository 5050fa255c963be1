// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package catalog provides the taste-profile catalog: the enumerated grid
// of canonical tastes and an immutable in-memory snapshot serving lookups.
//
// Snapshots are built once (from enumeration or from the store) and never
// mutated; rebuilds publish a fresh snapshot which readers swap atomically.
// The core therefore never observes a partially-updated catalog.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/tomtom215/gustus/internal/recommend"
)

// Snapshot is an immutable taste-profile catalog. It implements
// recommend.TasteProfileRepo and recommend.CatalogVersioner.
type Snapshot struct {
	version  int64
	byID     map[int]*recommend.TasteProfile
	byRep    map[recommend.RepresentativeKey]*recommend.TasteProfile
	ordered  []*recommend.TasteProfile
	inactive int
}

// NewSnapshot builds a snapshot from profile rows. Inactive rows are kept
// for ByID error reporting but excluded from lookups and iteration. The
// uniqueness invariant over active representative tuples is enforced.
func NewSnapshot(version int64, profiles []*recommend.TasteProfile) (*Snapshot, error) {
	s := &Snapshot{
		version: version,
		byID:    make(map[int]*recommend.TasteProfile, len(profiles)),
		byRep:   make(map[recommend.RepresentativeKey]*recommend.TasteProfile, len(profiles)),
	}

	for _, p := range profiles {
		if _, dup := s.byID[p.TasteID]; dup {
			return nil, fmt.Errorf("duplicate taste_id %d", p.TasteID)
		}
		s.byID[p.TasteID] = p

		if !p.IsActive {
			s.inactive++
			continue
		}

		if prev, dup := s.byRep[p.Rep]; dup {
			return nil, fmt.Errorf("representative tuple of taste %d duplicates taste %d", p.TasteID, prev.TasteID)
		}
		if err := checkProfile(p); err != nil {
			return nil, fmt.Errorf("taste %d: %w", p.TasteID, err)
		}

		s.byRep[p.Rep] = p
		s.ordered = append(s.ordered, p)
	}

	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].TasteID < s.ordered[j].TasteID
	})

	return s, nil
}

// checkProfile enforces the per-row catalog invariants: the shortlist and
// ill-suited sets are disjoint, and product score lists parallel their
// shortlists. Product existence and category membership are not checked
// here; the snapshot has no view of the product catalog, so the scorer's
// filter pipeline enforces them lazily by dropping shortlist entries that
// fail the category or status queries.
func checkProfile(p *recommend.TasteProfile) error {
	for _, c := range p.RecommendedCategories {
		if p.IllSuited(c) {
			return fmt.Errorf("category %q is both recommended and ill-suited", c)
		}
	}
	for c, ids := range p.RecommendedProducts {
		if scores := p.ProductScores[c]; len(scores) != len(ids) {
			return fmt.Errorf("category %q: %d products but %d scores", c, len(ids), len(scores))
		}
	}
	return nil
}

// Version returns the snapshot version.
func (s *Snapshot) Version() int64 { return s.version }

// CatalogVersion implements recommend.CatalogVersioner.
func (s *Snapshot) CatalogVersion() int64 { return s.version }

// Len returns the number of active profiles.
func (s *Snapshot) Len() int { return len(s.ordered) }

// ByID implements recommend.TasteProfileRepo. Unknown and inactive IDs both
// report ErrProfileNotFound; the catalog never fabricates a profile.
func (s *Snapshot) ByID(_ context.Context, tasteID int) (*recommend.TasteProfile, error) {
	p, ok := s.byID[tasteID]
	if !ok || !p.IsActive {
		return nil, fmt.Errorf("taste %d: %w", tasteID, recommend.ErrProfileNotFound)
	}
	return p, nil
}

// ByRepresentative implements recommend.TasteProfileRepo.
func (s *Snapshot) ByRepresentative(_ context.Context, rep recommend.RepresentativeKey) (*recommend.TasteProfile, error) {
	p, ok := s.byRep[rep]
	if !ok {
		return nil, fmt.Errorf("representative %+v: %w", rep, recommend.ErrProfileNotFound)
	}
	return p, nil
}

// ActiveProfiles implements recommend.TasteProfileRepo, returning active
// profiles in ascending taste-ID order.
func (s *Snapshot) ActiveProfiles(_ context.Context) ([]*recommend.TasteProfile, error) {
	out := make([]*recommend.TasteProfile, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// Holder is an atomically swappable snapshot reference. Serving code reads
// through the holder; rebuilds publish a new snapshot with Swap.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder around an initial snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Snapshot { return h.current.Load() }

// Swap publishes a new snapshot atomically.
func (h *Holder) Swap(s *Snapshot) { h.current.Store(s) }

// ByID delegates to the current snapshot.
func (h *Holder) ByID(ctx context.Context, tasteID int) (*recommend.TasteProfile, error) {
	return h.Load().ByID(ctx, tasteID)
}

// ByRepresentative delegates to the current snapshot.
func (h *Holder) ByRepresentative(ctx context.Context, rep recommend.RepresentativeKey) (*recommend.TasteProfile, error) {
	return h.Load().ByRepresentative(ctx, rep)
}

// ActiveProfiles delegates to the current snapshot.
func (h *Holder) ActiveProfiles(ctx context.Context) ([]*recommend.TasteProfile, error) {
	return h.Load().ActiveProfiles(ctx)
}

// CatalogVersion delegates to the current snapshot.
func (h *Holder) CatalogVersion() int64 { return h.Load().Version() }

// Enumerate produces the full taste grid: the Cartesian product of the
// representative domains (vibe × household × main space × pet × priority ×
// budget = 4×5×4×2×4×3 = 1,920 rows). Taste IDs are the 1-based position in
// this fixed iteration order and therefore stable across enumerations.
// Shortlists and affinities start empty; the offline rebuild fills them.
func Enumerate() []*recommend.TasteProfile {
	profiles := make([]*recommend.TasteProfile, 0,
		len(recommend.Vibes)*recommend.MaxHouseholdSize*len(recommend.RepSpaces)*2*len(recommend.Priorities)*len(recommend.BudgetLevels))

	id := 0
	for _, vibe := range recommend.Vibes {
		for household := 1; household <= recommend.MaxHouseholdSize; household++ {
			for _, space := range recommend.RepSpaces {
				for _, pet := range []bool{false, true} {
					for _, priority := range recommend.Priorities {
						for _, budget := range recommend.BudgetLevels {
							id++
							rep := recommend.RepresentativeKey{
								Vibe:          vibe,
								HouseholdSize: household,
								MainSpaceKey:  string(space),
								HasPet:        pet,
								Priority:      priority,
								BudgetLevel:   budget,
							}
							profiles = append(profiles, &recommend.TasteProfile{
								TasteID:    id,
								StyleLabel: StyleLabel(rep),
								Rep:        rep,
								IsActive:   true,
							})
						}
					}
				}
			}
		}
	}

	return profiles
}

// StyleLabel derives the human-readable label for a representative tuple,
// e.g. "Modern · 1인 · Living".
func StyleLabel(rep recommend.RepresentativeKey) string {
	return strings.Join([]string{
		titleCase(string(rep.Vibe)),
		recommend.HouseholdBucket(rep.HouseholdSize),
		titleCase(rep.MainSpaceKey),
	}, " · ")
}

// titleCase upper-cases the first ASCII letter of a token.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
