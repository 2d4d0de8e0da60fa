// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"time"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Temporal sub-score components.
const (
	temporalSeasonBoost = 0.4
	temporalEventBoost  = 0.6
)

// Temporal scores items by time relevance: a flat boost for items tagged
// with the season in effect, plus an upcoming-event boost that decays
// linearly as the event recedes into the scoring window. Events in the
// past score nothing.
type Temporal struct {
	// window is how far ahead an event still gets a boost.
	window time.Duration
}

// NewTemporal returns a temporal relevance scorer with the given
// upcoming-event window.
func NewTemporal(window time.Duration) *Temporal {
	return &Temporal{window: window}
}

// Name implements recommend.Scorer.
func (t *Temporal) Name() string { return recommend.ScorerTemporal }

// Score implements recommend.Scorer. The score is deterministic for a
// fixed scoring context; all candidates in a request share one Now.
func (t *Temporal) Score(_ context.Context, _ *recommend.UserProfile, item *recommend.ContentItem, sctx *recommend.ScoringContext) (float64, error) {
	score := 0.0
	if sctx.Season != "" && containsFold(item.Tags, sctx.Season) {
		score += temporalSeasonBoost
	}
	if item.EventTime != nil {
		until := item.EventTime.Sub(sctx.Now)
		if until >= 0 && until <= t.window {
			// Closer events score higher; an event at the window edge
			// gets nothing, an event right now gets the full boost.
			score += temporalEventBoost * (1 - until.Seconds()/t.window.Seconds())
		}
	}
	return clamp01(score), nil
}
