// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

// Package recommend implements the taste-based recommendation core: it
// canonicalizes a completed onboarding questionnaire, classifies it against
// the bounded taste catalog, selects product categories under session
// constraints, and scores and ranks concrete products per category.
//
// The pipeline is request-scoped and deterministic: for a fixed answers
// record, taste-catalog snapshot, and product-catalog snapshot, the output
// is bit-identical across invocations. No wall-clock time, randomness, or
// map-iteration ordering reaches the scoring path.
//
// Data flow:
//
//	OnboardingAnswers → Classifier → taste profile
//	                  → PortfolioBuilder → ordered categories
//	                  → Scorer → ranked products per category
//	                  → PortfolioResult
//
// The taste and product catalogs are injected as the read-only
// TasteProfileRepo and ProductRepo interfaces; persistence, HTTP, and
// logging sinks are the host's responsibility.
package recommend
