// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP surface: recommendation endpoints,
// experiment assignment and tracking, interaction logging, and health.
package api

import (
	"github.com/trendspotter/trendspotter/internal/experiment"
	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	engine      *recommend.Engine
	experiments *experiment.Service
	version     string
}

// NewHandler wires the handler to its services.
func NewHandler(engine *recommend.Engine, experiments *experiment.Service, version string) *Handler {
	return &Handler{
		engine:      engine,
		experiments: experiments,
		version:     version,
	}
}
