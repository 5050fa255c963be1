// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/recommend/catalog"
)

const profileColumns = `taste_id, style_label, rep_vibe, rep_household_size,
	rep_main_space, rep_has_pet, rep_priority, rep_budget_level,
	recommended_categories, ill_suited_categories, category_scores,
	recommended_products, product_scores, is_active`

const catalogVersionKey = "catalog_version"

// ByID returns the active profile with the given identifier.
func (s *Store) ByID(ctx context.Context, tasteID int) (*recommend.TasteProfile, error) {
	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		row := s.conn.QueryRowContext(ctx,
			`SELECT `+profileColumns+` FROM taste_profiles WHERE taste_id = ?`, tasteID)
		p, err := scanProfile(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, recommend.ErrProfileNotFound
			}
			return nil, fmt.Errorf("query profile %d: %w", tasteID, err)
		}
		if !p.IsActive {
			return nil, recommend.ErrProfileNotFound
		}
		return p, nil
	})
	metrics.ObserveStoreQuery("taste_by_id", start, err)
	if err != nil {
		return nil, err
	}
	return out.(*recommend.TasteProfile), nil
}

// ByRepresentative returns the active profile matching the exact
// representative six-tuple, or ErrProfileNotFound.
func (s *Store) ByRepresentative(ctx context.Context, rep recommend.RepresentativeKey) (*recommend.TasteProfile, error) {
	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		row := s.conn.QueryRowContext(ctx,
			`SELECT `+profileColumns+` FROM taste_profiles
			 WHERE rep_vibe = ? AND rep_household_size = ? AND rep_main_space = ?
			   AND rep_has_pet = ? AND rep_priority = ? AND rep_budget_level = ?
			   AND is_active`,
			string(rep.Vibe), rep.HouseholdSize, rep.MainSpaceKey,
			recommend.PetFlag(rep.HasPet), string(rep.Priority), string(rep.BudgetLevel))
		p, err := scanProfile(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, recommend.ErrProfileNotFound
			}
			return nil, fmt.Errorf("query profile by representative: %w", err)
		}
		return p, nil
	})
	metrics.ObserveStoreQuery("taste_by_representative", start, err)
	if err != nil {
		return nil, err
	}
	return out.(*recommend.TasteProfile), nil
}

// ActiveProfiles returns every active profile ordered by taste_id.
func (s *Store) ActiveProfiles(ctx context.Context) ([]*recommend.TasteProfile, error) {
	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT `+profileColumns+` FROM taste_profiles WHERE is_active ORDER BY taste_id`)
		if err != nil {
			return nil, fmt.Errorf("query active profiles: %w", err)
		}
		defer rows.Close()

		var profiles []*recommend.TasteProfile
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return nil, fmt.Errorf("scan profile: %w", err)
			}
			profiles = append(profiles, p)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate profiles: %w", err)
		}
		return profiles, nil
	})
	metrics.ObserveStoreQuery("taste_active_profiles", start, err)
	if err != nil {
		return nil, err
	}
	return out.([]*recommend.TasteProfile), nil
}

// CatalogVersion reports the stored snapshot version, zero when unset.
func (s *Store) CatalogVersion(ctx context.Context) (int64, error) {
	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		var version int64
		err := s.conn.QueryRowContext(ctx,
			`SELECT meta_value FROM catalog_meta WHERE meta_key = ?`, catalogVersionKey).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return int64(0), nil
		}
		if err != nil {
			return int64(0), fmt.Errorf("query catalog version: %w", err)
		}
		return version, nil
	})
	metrics.ObserveStoreQuery("catalog_version", start, err)
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}

// LoadSnapshot materializes the full stored catalog as an in-memory
// snapshot for serving.
func (s *Store) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	version, err := s.CatalogVersion(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, qerr := s.breaker.execute(func() (any, error) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT `+profileColumns+` FROM taste_profiles ORDER BY taste_id`)
		if err != nil {
			return nil, fmt.Errorf("query all profiles: %w", err)
		}
		defer rows.Close()

		var profiles []*recommend.TasteProfile
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return nil, fmt.Errorf("scan profile: %w", err)
			}
			profiles = append(profiles, p)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate profiles: %w", err)
		}
		return profiles, nil
	})
	metrics.ObserveStoreQuery("load_snapshot", start, qerr)
	if qerr != nil {
		return nil, qerr
	}

	snap, err := catalog.NewSnapshot(version, out.([]*recommend.TasteProfile))
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	return snap, nil
}

// ReplaceProfiles swaps the stored catalog to the given profile set and
// version in a single transaction.
func (s *Store) ReplaceProfiles(ctx context.Context, profiles []*recommend.TasteProfile, version int64) error {
	start := time.Now()

	err := func() error {
		tx, err := s.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM taste_profiles`); err != nil {
			return fmt.Errorf("clear profiles: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO taste_profiles (`+profileColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range profiles {
			args, err := profileArgs(p)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert profile %d: %w", p.TasteID, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_meta (meta_key, meta_value) VALUES (?, ?)
			 ON CONFLICT (meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
			catalogVersionKey, version); err != nil {
			return fmt.Errorf("update catalog version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit profiles: %w", err)
		}
		return nil
	}()

	metrics.ObserveStoreQuery("replace_profiles", start, err)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int("profiles", len(profiles)).
		Int64("version", version).
		Msg("taste catalog replaced")
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*recommend.TasteProfile, error) {
	var (
		p       recommend.TasteProfile
		petFlag string
		recCats, illCats, catScores, recProds, prodScores string
	)

	err := row.Scan(
		&p.TasteID, &p.StyleLabel,
		&p.Rep.Vibe, &p.Rep.HouseholdSize, &p.Rep.MainSpaceKey,
		&petFlag, &p.Rep.Priority, &p.Rep.BudgetLevel,
		&recCats, &illCats, &catScores, &recProds, &prodScores,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}

	p.Rep.HasPet = recommend.PetFromFlag(petFlag)

	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"recommended_categories", recCats, &p.RecommendedCategories},
		{"ill_suited_categories", illCats, &p.IllSuitedCategories},
		{"category_scores", catScores, &p.CategoryScores},
		{"recommended_products", recProds, &p.RecommendedProducts},
		{"product_scores", prodScores, &p.ProductScores},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decode %s for profile %d: %w", col.name, p.TasteID, err)
		}
	}

	return &p, nil
}

func profileArgs(p *recommend.TasteProfile) ([]any, error) {
	encode := func(name string, v any) (string, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode %s for profile %d: %w", name, p.TasteID, err)
		}
		return string(raw), nil
	}

	recCats, err := encode("recommended_categories", p.RecommendedCategories)
	if err != nil {
		return nil, err
	}
	illCats, err := encode("ill_suited_categories", p.IllSuitedCategories)
	if err != nil {
		return nil, err
	}
	catScores, err := encode("category_scores", p.CategoryScores)
	if err != nil {
		return nil, err
	}
	recProds, err := encode("recommended_products", p.RecommendedProducts)
	if err != nil {
		return nil, err
	}
	prodScores, err := encode("product_scores", p.ProductScores)
	if err != nil {
		return nil, err
	}

	return []any{
		p.TasteID, p.StyleLabel,
		string(p.Rep.Vibe), p.Rep.HouseholdSize, p.Rep.MainSpaceKey,
		recommend.PetFlag(p.Rep.HasPet), string(p.Rep.Priority), string(p.Rep.BudgetLevel),
		recCats, illCats, catScores, recProds, prodScores,
		p.IsActive,
	}, nil
}
