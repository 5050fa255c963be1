// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/gustus/internal/logging"
	"github.com/tomtom215/gustus/internal/metrics"
	"github.com/tomtom215/gustus/internal/recommend"
	"github.com/tomtom215/gustus/internal/validation"
)

// RecommendRequest is the questionnaire payload. Structural bounds are
// checked here; the conditional answer invariants are enforced by the core.
type RecommendRequest struct {
	Vibe          string   `json:"vibe" validate:"required"`
	HouseholdSize int      `json:"household_size" validate:"required,min=1,max=5"`
	HasPet        bool     `json:"has_pet"`
	HousingType   string   `json:"housing_type" validate:"required"`
	MainSpaces    []string `json:"main_spaces" validate:"required,min=1"`
	Pyeong        int      `json:"pyeong" validate:"required,min=1"`
	Cooking       string   `json:"cooking,omitempty"`
	Laundry       string   `json:"laundry,omitempty"`
	Media         string   `json:"media,omitempty"`
	Priority      string   `json:"priority" validate:"required"`
	BudgetLevel   string   `json:"budget_level" validate:"required"`
}

// toAnswers converts the wire payload to core answers.
func (req *RecommendRequest) toAnswers() recommend.OnboardingAnswers {
	spaces := make([]recommend.Space, len(req.MainSpaces))
	for i, s := range req.MainSpaces {
		spaces[i] = recommend.Space(s)
	}
	return recommend.OnboardingAnswers{
		Vibe:          recommend.Vibe(req.Vibe),
		HouseholdSize: req.HouseholdSize,
		HasPet:        req.HasPet,
		HousingType:   recommend.HousingType(req.HousingType),
		MainSpaces:    spaces,
		Pyeong:        req.Pyeong,
		Cooking:       recommend.Cooking(req.Cooking),
		Laundry:       recommend.Laundry(req.Laundry),
		Media:         recommend.Media(req.Media),
		Priority:      recommend.Priority(req.Priority),
		BudgetLevel:   req.BudgetLevel,
	}
}

// Recommend handles POST /api/v1/recommend.
func (rt *Router) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, http.StatusBadRequest, "MALFORMED_JSON", "request body is not valid JSON", nil)
		return
	}

	if verr := validation.Struct(&req); verr != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Fields())
		return
	}

	ctx := r.Context()
	if rt.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := rt.engine.Recommend(ctx, req.toAnswers())
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		rt.respondRecommendError(w, r, err)
		return
	}

	result.Metadata.RequestID = logging.CorrelationID(ctx)
	metrics.RecommendRequestsTotal.WithLabelValues("ok").Inc()
	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: result})
}

// respondRecommendError maps the core error taxonomy onto HTTP statuses.
func (rt *Router) respondRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())

	var invalidErr *recommend.InvalidAnswersError
	var noViableErr *recommend.NoViableCategoriesError
	var repoErr *recommend.RepoError

	switch {
	case errors.As(err, &invalidErr):
		metrics.RecommendRequestsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, http.StatusBadRequest, "INVALID_ANSWERS", invalidErr.Error(),
			map[string]string{"field": invalidErr.Field})

	case errors.As(err, &noViableErr):
		metrics.RecommendRequestsTotal.WithLabelValues("no_viable").Inc()
		respondError(w, r, http.StatusUnprocessableEntity, "NO_VIABLE_CATEGORIES", noViableErr.Error(),
			map[string]any{"taste_id": noViableErr.TasteID, "dropped": noViableErr.Dropped})

	case errors.Is(err, recommend.ErrDeadline):
		metrics.RecommendRequestsTotal.WithLabelValues("deadline").Inc()
		logger.Warn().Err(err).Msg("recommendation deadline exceeded")
		respondError(w, r, http.StatusGatewayTimeout, "DEADLINE_EXCEEDED", "recommendation timed out", nil)

	case errors.Is(err, recommend.ErrCatalogEmpty):
		metrics.RecommendRequestsTotal.WithLabelValues("catalog_empty").Inc()
		logger.Error().Err(err).Msg("taste catalog is empty")
		respondError(w, r, http.StatusServiceUnavailable, "CATALOG_EMPTY", "taste catalog is not loaded", nil)

	case errors.As(err, &repoErr):
		metrics.RecommendRequestsTotal.WithLabelValues("repo_error").Inc()
		logger.Error().Err(err).Str("op", repoErr.Op).Msg("repository failure")
		respondError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "catalog storage is unavailable", nil)

	default:
		metrics.RecommendRequestsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("recommendation failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
	}
}

// TasteResponse is the public projection of a taste profile.
type TasteResponse struct {
	TasteID               int                         `json:"taste_id"`
	StyleLabel            string                      `json:"style_label"`
	Rep                   recommend.RepresentativeKey `json:"rep"`
	RecommendedCategories []string                    `json:"recommended_categories"`
	IllSuitedCategories   []string                    `json:"ill_suited_categories,omitempty"`
	CategoryScores        map[string]float64          `json:"category_scores,omitempty"`
}

// TasteByID handles GET /api/v1/tastes/{id}.
func (rt *Router) TasteByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "taste id must be a positive integer", nil)
		return
	}

	profile, err := rt.catalog.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, recommend.ErrProfileNotFound) {
			respondError(w, r, http.StatusNotFound, "TASTE_NOT_FOUND", "unknown or inactive taste id", nil)
			return
		}
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Int("taste_id", id).Msg("taste lookup failed")
		respondError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "catalog storage is unavailable", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: TasteResponse{
		TasteID:               profile.TasteID,
		StyleLabel:            profile.StyleLabel,
		Rep:                   profile.Rep,
		RecommendedCategories: profile.RecommendedCategories,
		IllSuitedCategories:   profile.IllSuitedCategories,
		CategoryScores:        profile.CategoryScores,
	}})
}

// HealthLive handles GET /healthz/live.
func (rt *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: map[string]string{"state": "alive"}})
}

// HealthReady handles GET /healthz/ready: storage reachable and at least
// one active taste profile loaded.
func (rt *Router) HealthReady(w http.ResponseWriter, r *http.Request) {
	if rt.pinger != nil {
		if err := rt.pinger.Ping(r.Context()); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage ping failed", nil)
			return
		}
	}

	profiles, err := rt.catalog.ActiveProfiles(r.Context())
	if err != nil || len(profiles) == 0 {
		respondError(w, r, http.StatusServiceUnavailable, "CATALOG_EMPTY", "taste catalog is not loaded", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, &APIResponse{Status: "success", Data: map[string]any{
		"state":    "ready",
		"profiles": len(profiles),
	}})
}
