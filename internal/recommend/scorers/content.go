// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Sub-weights for the content similarity blend.
const (
	contentTagWeight      = 0.5
	contentCategoryWeight = 0.3
	contentTextWeight     = 0.2
)

// Content scores items by attribute similarity against the user's interest
// profile. It is stateless per request and needs no training, which makes
// it the reliable signal for cold-start users who declared interests.
type Content struct{}

// NewContent returns a content similarity scorer.
func NewContent() *Content { return &Content{} }

// Name implements recommend.Scorer.
func (c *Content) Name() string { return recommend.ScorerContent }

// Score compares the user's interests against the item's tags and
// categories. Users without interests score 0 everywhere.
func (c *Content) Score(_ context.Context, user *recommend.UserProfile, item *recommend.ContentItem, _ *recommend.ScoringContext) (float64, error) {
	if user == nil || len(user.Interests) == 0 {
		return 0, nil
	}
	tagSim := jaccard(user.Interests, item.Tags)
	catSim := jaccard(user.Interests, item.Categories)
	textSim := jaccard(user.Interests, tokenize(item.Title+" "+item.Description))
	score := contentTagWeight*tagSim + contentCategoryWeight*catSim + contentTextWeight*textSim
	return clamp01(score), nil
}

// Similar computes item-item attribute similarity, used by the
// similar-content lookup. Symmetric in its arguments.
func (c *Content) Similar(a, b *recommend.ContentItem) float64 {
	tagSim := jaccard(a.Tags, b.Tags)
	catSim := jaccard(a.Categories, b.Categories)
	textSim := jaccard(
		tokenize(a.Title+" "+a.Description),
		tokenize(b.Title+" "+b.Description),
	)
	return clamp01(contentTagWeight*tagSim + contentCategoryWeight*catSim + contentTextWeight*textSim)
}
