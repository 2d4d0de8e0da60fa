// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/recommend"
)

// interactionRequest is the body of POST /api/v1/interactions.
type interactionRequest struct {
	UserID    string `json:"user_id" validate:"required,max=200"`
	ContentID string `json:"content_id" validate:"required,max=200"`
	Type      string `json:"type" validate:"required,oneof=view click save share feedback"`
}

// LogInteraction handles POST /api/v1/interactions. The event is
// appended to the log; models pick it up on the next training cycle.
func (h *Handler) LogInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req interactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	// Best effort: a failed append must not degrade the caller's flow.
	err := h.engine.LogInteraction(r.Context(), recommend.Interaction{
		UserID:    req.UserID,
		ContentID: req.ContentID,
		Type:      recommend.ParseInteractionType(req.Type),
	})
	if err != nil {
		logging.Warn().
			Err(err).
			Str("user_id", sanitizeLogValue(req.UserID)).
			Str("content_id", sanitizeLogValue(req.ContentID)).
			Msg("Interaction append failed, event dropped")
	}
	respondOK(w, http.StatusAccepted, map[string]string{"status": "accepted"}, start)
}
