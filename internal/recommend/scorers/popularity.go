// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"math"
	"sort"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Popularity ranks items by confidence-weighted interaction volume with
// logarithmic damping, so a runaway hit does not drown the catalog. It
// backs the popular-content listing and the backfill set for thin results.
type Popularity struct {
	BaseScorer

	// scores maps item -> normalized popularity in [0, 1]. Guarded by stateMu.
	scores map[string]float64

	// items holds catalog items seen at train time, for TopK listings.
	items map[string]recommend.ContentItem

	// ranked is item IDs in descending popularity order.
	ranked []string
}

// NewPopularity returns an untrained popularity scorer.
func NewPopularity() *Popularity { return &Popularity{} }

// Name returns the scorer identifier.
func (p *Popularity) Name() string { return "popularity" }

// Train recomputes popularity from the interaction log. Only items present
// in the catalog snapshot are ranked.
func (p *Popularity) Train(ctx context.Context, interactions []recommend.Interaction, items []recommend.ContentItem) error {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	catalog := make(map[string]recommend.ContentItem, len(items))
	for _, item := range items {
		catalog[item.ID] = item
	}

	raw := make(map[string]float64)
	for _, in := range interactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := catalog[in.ContentID]; !ok {
			continue
		}
		raw[in.ContentID] += in.Type.Confidence()
	}

	scores := make(map[string]float64, len(raw))
	maxDamped := 0.0
	for id, count := range raw {
		damped := math.Log1p(count)
		scores[id] = damped
		if damped > maxDamped {
			maxDamped = damped
		}
	}
	if maxDamped > 0 {
		for id := range scores {
			scores[id] /= maxDamped
		}
	}

	ranked := make([]string, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	p.stateMu.Lock()
	p.scores = scores
	p.items = catalog
	p.ranked = ranked
	p.trained = true
	p.stateMu.Unlock()
	return nil
}

// Score returns the item's normalized popularity. Untrained or unseen
// items score 0.
func (p *Popularity) Score(_ context.Context, _ *recommend.UserProfile, item *recommend.ContentItem, _ *recommend.ScoringContext) (float64, error) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if !p.trained {
		return 0, nil
	}
	return p.scores[item.ID], nil
}

// TopK returns the n most popular items, optionally restricted to a
// category. Used for the popular listing and result backfill.
func (p *Popularity) TopK(n int, category string) []recommend.ScoredCandidate {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if !p.trained || n <= 0 {
		return nil
	}
	out := make([]recommend.ScoredCandidate, 0, n)
	for _, id := range p.ranked {
		item := p.items[id]
		if category != "" && !containsFold(item.Categories, category) {
			continue
		}
		out = append(out, recommend.ScoredCandidate{
			Item:   item,
			Score:  p.scores[id],
			Scores: map[string]float64{p.Name(): p.scores[id]},
		})
		if len(out) == n {
			break
		}
	}
	return out
}
