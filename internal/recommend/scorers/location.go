// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"strings"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Location sub-scores by neighborhood match.
const (
	locationPrimaryScore   = 1.0
	locationPreferredScore = 0.6
)

// Location scores items by neighborhood affinity: full score for the
// user's primary neighborhood, partial for any other preferred
// neighborhood, zero otherwise. Matching is case-insensitive.
type Location struct{}

// NewLocation returns a location affinity scorer.
func NewLocation() *Location { return &Location{} }

// Name implements recommend.Scorer.
func (l *Location) Name() string { return recommend.ScorerLocation }

// Score implements recommend.Scorer. For location-only requests the
// neighborhood comes from the scoring context instead of a user profile.
func (l *Location) Score(_ context.Context, user *recommend.UserProfile, item *recommend.ContentItem, _ *recommend.ScoringContext) (float64, error) {
	if item.Neighborhood == "" || user == nil || len(user.Neighborhoods) == 0 {
		return 0, nil
	}
	if strings.EqualFold(item.Neighborhood, user.Neighborhoods[0]) {
		return locationPrimaryScore, nil
	}
	if containsFold(user.Neighborhoods[1:], item.Neighborhood) {
		return locationPreferredScore, nil
	}
	return 0, nil
}
