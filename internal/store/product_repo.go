// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend"
)

// specNamespace is the only spec namespace the scorer consumes.
const specNamespace = "COMMON"

// ByCategory returns on_sale products in the category with
// 0 < price <= maxPrice, ordered by product_id. maxPrice <= 0 is unbounded.
func (s *Store) ByCategory(ctx context.Context, category string, maxPrice int64) ([]recommend.Product, error) {
	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT product_id, name, main_category, price, status
			 FROM products
			 WHERE main_category = ? AND status = ? AND price > 0
			   AND (? <= 0 OR price <= ?)
			 ORDER BY product_id`,
			category, recommend.ProductStatusOnSale, maxPrice, maxPrice)
		if err != nil {
			return nil, fmt.Errorf("query products for %s: %w", category, err)
		}
		defer rows.Close()

		var products []recommend.Product
		for rows.Next() {
			var p recommend.Product
			if err := rows.Scan(&p.ProductID, &p.Name, &p.MainCategory, &p.Price, &p.Status); err != nil {
				return nil, fmt.Errorf("scan product: %w", err)
			}
			products = append(products, p)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate products: %w", err)
		}
		return products, nil
	})
	metrics.ObserveStoreQuery("products_by_category", start, err)
	if err != nil {
		return nil, err
	}
	return out.([]recommend.Product), nil
}

// SpecsFor returns COMMON-namespace specs for the given products in a
// single IN query.
func (s *Store) SpecsFor(ctx context.Context, productIDs []int64) (map[int64][]recommend.SpecEntry, error) {
	if len(productIDs) == 0 {
		return map[int64][]recommend.SpecEntry{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(productIDs)), ", ")
	args := make([]any, 0, len(productIDs)+1)
	args = append(args, specNamespace)
	for _, id := range productIDs {
		args = append(args, id)
	}

	start := time.Now()
	out, err := s.breaker.execute(func() (any, error) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT product_id, spec_key, spec_value
			 FROM product_specs
			 WHERE namespace = ? AND product_id IN (`+placeholders+`)
			 ORDER BY product_id, spec_key`, args...)
		if err != nil {
			return nil, fmt.Errorf("query specs: %w", err)
		}
		defer rows.Close()

		specs := make(map[int64][]recommend.SpecEntry, len(productIDs))
		for rows.Next() {
			var (
				id    int64
				entry recommend.SpecEntry
			)
			if err := rows.Scan(&id, &entry.Key, &entry.Value); err != nil {
				return nil, fmt.Errorf("scan spec: %w", err)
			}
			specs[id] = append(specs[id], entry)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate specs: %w", err)
		}
		return specs, nil
	})
	metrics.ObserveStoreQuery("specs_for", start, err)
	if err != nil {
		return nil, err
	}
	return out.(map[int64][]recommend.SpecEntry), nil
}

// UpsertProducts replaces the product rows and their COMMON specs in one
// transaction. Used by the catalogctl import path.
func (s *Store) UpsertProducts(ctx context.Context, products []recommend.Product, specs map[int64][]recommend.SpecEntry) error {
	start := time.Now()

	err := func() error {
		tx, err := s.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		prodStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO products (product_id, name, main_category, price, status)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (product_id) DO UPDATE SET
				name = excluded.name,
				main_category = excluded.main_category,
				price = excluded.price,
				status = excluded.status`)
		if err != nil {
			return fmt.Errorf("prepare product upsert: %w", err)
		}
		defer prodStmt.Close()

		specStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO product_specs (product_id, namespace, spec_key, spec_value)
			 VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare spec insert: %w", err)
		}
		defer specStmt.Close()

		for _, p := range products {
			if _, err := prodStmt.ExecContext(ctx,
				p.ProductID, p.Name, p.MainCategory, p.Price, p.Status); err != nil {
				return fmt.Errorf("upsert product %d: %w", p.ProductID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM product_specs WHERE product_id = ? AND namespace = ?`,
				p.ProductID, specNamespace); err != nil {
				return fmt.Errorf("clear specs for %d: %w", p.ProductID, err)
			}
			for _, entry := range specs[p.ProductID] {
				if _, err := specStmt.ExecContext(ctx,
					p.ProductID, specNamespace, entry.Key, entry.Value); err != nil {
					return fmt.Errorf("insert spec for %d: %w", p.ProductID, err)
				}
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit products: %w", err)
		}
		return nil
	}()

	metrics.ObserveStoreQuery("upsert_products", start, err)
	if err != nil {
		return err
	}

	s.logger.Info().Int("products", len(products)).Msg("product catalog updated")
	return nil
}
