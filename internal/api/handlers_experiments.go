// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trendspotter/trendspotter/internal/experiment"
)

// ExperimentList handles GET /api/v1/experiments.
func (h *Handler) ExperimentList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondOK(w, http.StatusOK, map[string]interface{}{
		"experiments": h.experiments.Registry().Names(),
	}, start)
}

// GetVariant handles GET /api/v1/experiments/{name}/variant?subject=...
// A disabled experiment returns a null assignment, not an error.
func (h *Handler) GetVariant(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")
	subject := r.URL.Query().Get("subject")

	assignment, err := h.experiments.GetVariant(r.Context(), name, subject)
	if err != nil {
		h.respondExperimentError(w, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]interface{}{
		"experiment": name,
		"assignment": assignment,
	}, start)
}

// trackRequest is the body of impression and conversion tracking calls.
type trackRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
}

// TrackImpression handles POST /api/v1/experiments/{name}/impression.
// Accepted events are counted asynchronously from the caller's view;
// the response confirms receipt, not durability of derived metrics.
func (h *Handler) TrackImpression(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, h.experiments.TrackImpression)
}

// TrackConversion handles POST /api/v1/experiments/{name}/conversion.
func (h *Handler) TrackConversion(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, h.experiments.TrackConversion)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, experiment, subjectID string) error) {
	start := time.Now()
	name := chi.URLParam(r, "name")

	var req trackRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := fn(r.Context(), name, req.Subject); err != nil {
		h.respondExperimentError(w, err)
		return
	}
	respondOK(w, http.StatusAccepted, map[string]string{"status": "accepted"}, start)
}

// ExperimentMetrics handles GET /api/v1/experiments/{name}/metrics.
func (h *Handler) ExperimentMetrics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")

	m, err := h.experiments.GetMetrics(r.Context(), name)
	if err != nil {
		h.respondExperimentError(w, err)
		return
	}
	respondOK(w, http.StatusOK, m, start)
}

// ExperimentReset handles POST /api/v1/experiments/{name}/reset.
func (h *Handler) ExperimentReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")

	if err := h.experiments.Reset(r.Context(), name); err != nil {
		h.respondExperimentError(w, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]string{"status": "reset"}, start)
}

// respondExperimentError maps experiment service errors to HTTP status.
func (h *Handler) respondExperimentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, experiment.ErrExperimentNotFound):
		respondError(w, http.StatusNotFound, "EXPERIMENT_NOT_FOUND", "experiment not found", nil)
	case errors.Is(err, experiment.ErrSubjectRequired):
		respondError(w, http.StatusBadRequest, "SUBJECT_REQUIRED", "subject identifier required", nil)
	default:
		respondError(w, http.StatusInternalServerError, "EXPERIMENT_FAILED", "experiment operation failed", err)
	}
}
