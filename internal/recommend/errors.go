// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// The core emits a small, disjoint error taxonomy. Invalid inputs and
// catalog-structural failures surface directly; transient repo failures are
// wrapped (never swallowed) so the caller can decide on retries.

// Sentinel errors.
var (
	// ErrCatalogEmpty indicates no active taste profiles exist. This is
	// an operational condition, not a user error.
	ErrCatalogEmpty = errors.New("taste catalog is empty")

	// ErrProfileNotFound indicates an unknown or inactive taste ID or
	// representative tuple.
	ErrProfileNotFound = errors.New("taste profile not found")

	// ErrDeadline indicates the caller-supplied deadline was exceeded
	// mid-pipeline.
	ErrDeadline = errors.New("recommendation deadline exceeded")
)

// InvalidAnswersError reports a questionnaire record that violates the
// answer invariants. Field names the first offending field.
type InvalidAnswersError struct {
	// Field is the snake_case name of the offending field.
	Field string

	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *InvalidAnswersError) Error() string {
	return fmt.Sprintf("invalid answers: field %q: %s", e.Field, e.Reason)
}

// invalidAnswers is shorthand for constructing an InvalidAnswersError.
func invalidAnswers(field, format string, args ...any) error {
	return &InvalidAnswersError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CategoryDrop records why the portfolio builder dropped a category, for
// diagnostic reporting.
type CategoryDrop struct {
	// Category is the dropped category name.
	Category string `json:"category"`

	// Rule is the gate or cap that caused the drop (e.g. "gate:kitchen",
	// "pyeong_cap", "budget_sanity", "ill_suited").
	Rule string `json:"rule"`

	// Detail explains which answer triggered the rule.
	Detail string `json:"detail"`
}

// NoViableCategoriesError indicates every candidate category was dropped
// during portfolio building. Dropped preserves drop order for diagnostics.
type NoViableCategoriesError struct {
	TasteID int
	Dropped []CategoryDrop
}

// Error implements the error interface.
func (e *NoViableCategoriesError) Error() string {
	rules := make([]string, 0, len(e.Dropped))
	for _, d := range e.Dropped {
		rules = append(rules, d.Category+"("+d.Rule+")")
	}
	return fmt.Sprintf("no viable categories for taste %d: dropped %s",
		e.TasteID, strings.Join(rules, ", "))
}

// RepoError wraps a failure from an injected repository. The underlying
// error is preserved for errors.Is/As.
type RepoError struct {
	// Op names the failing repository operation.
	Op string

	// Err is the underlying repository error.
	Err error
}

// Error implements the error interface.
func (e *RepoError) Error() string {
	return fmt.Sprintf("repo %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *RepoError) Unwrap() error {
	return e.Err
}

// wrapRepoErr wraps err as a RepoError unless it already belongs to the
// core taxonomy.
func wrapRepoErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrCatalogEmpty) {
		return err
	}
	return &RepoError{Op: op, Err: err}
}
