// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"
)

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondOK(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	}, start)
}
