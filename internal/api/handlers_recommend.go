// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// recommendParams is the validated query surface of the recommendation
// endpoints.
type recommendParams struct {
	Count    int    `validate:"gte=0,lte=50"`
	Strategy string `validate:"omitempty,oneof=hybrid collaborative content location"`
}

// RecommendForUser handles GET /api/v1/recommendations/user/{userID}.
func (h *Handler) RecommendForUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	params := recommendParams{
		Count:    getIntParam(r, "count", 0),
		Strategy: r.URL.Query().Get("strategy"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:   userID,
		Count:    params.Count,
		Strategy: recommend.Strategy(params.Strategy),
	})
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}
	respondOK(w, http.StatusOK, result, start)
}

// SimilarContent handles GET /api/v1/recommendations/similar/{contentID}.
func (h *Handler) SimilarContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	contentID := chi.URLParam(r, "contentID")

	params := recommendParams{Count: getIntParam(r, "count", 0)}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.Similar(r.Context(), contentID, params.Count)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}
	respondOK(w, http.StatusOK, result, start)
}

// locationParams validates the location endpoint's query surface.
type locationParams struct {
	Neighborhood string `validate:"required,max=100"`
	Season       string `validate:"omitempty,oneof=spring summer fall winter"`
	Count        int    `validate:"gte=0,lte=50"`
}

// RecommendForLocation handles GET /api/v1/recommendations/location.
func (h *Handler) RecommendForLocation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := locationParams{
		Neighborhood: r.URL.Query().Get("neighborhood"),
		Season:       r.URL.Query().Get("season"),
		Count:        getIntParam(r, "count", 0),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.ForLocation(r.Context(), params.Neighborhood, params.Season, params.Count)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}
	respondOK(w, http.StatusOK, result, start)
}

// PopularContent handles GET /api/v1/recommendations/popular.
func (h *Handler) PopularContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := struct {
		Category string `validate:"omitempty,max=100"`
		Count    int    `validate:"gte=0,lte=50"`
	}{
		Category: r.URL.Query().Get("category"),
		Count:    getIntParam(r, "count", 0),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.engine.Popular(r.Context(), params.Category, params.Count)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}
	respondOK(w, http.StatusOK, result, start)
}

// respondRecommendError maps engine errors to HTTP status codes.
func (h *Handler) respondRecommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
	case errors.Is(err, recommend.ErrContentNotFound):
		respondError(w, http.StatusNotFound, "CONTENT_NOT_FOUND", "content not found", nil)
	case errors.Is(err, recommend.ErrInvalidStrategy):
		respondError(w, http.StatusBadRequest, "INVALID_STRATEGY", "unknown ranking strategy", nil)
	case errors.Is(err, recommend.ErrProviderUnavailable):
		respondError(w, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "data provider unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "failed to generate recommendations", err)
	}
}
