// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"testing"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

func popularityFixture(t *testing.T) *Popularity {
	t.Helper()
	items := []recommend.ContentItem{
		{ID: "hit", Categories: []string{"food"}},
		{ID: "mid", Categories: []string{"food"}},
		{ID: "quiet", Categories: []string{"art"}},
	}
	var interactions []recommend.Interaction
	add := func(content string, n int, typ recommend.InteractionType) {
		for i := 0; i < n; i++ {
			interactions = append(interactions, recommend.Interaction{
				UserID:    "u",
				ContentID: content,
				Type:      typ,
			})
		}
	}
	add("hit", 50, recommend.InteractionShare)
	add("mid", 10, recommend.InteractionClick)
	add("quiet", 1, recommend.InteractionView)

	p := NewPopularity()
	if err := p.Train(context.Background(), interactions, items); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return p
}

func TestPopularityScoreNormalized(t *testing.T) {
	p := popularityFixture(t)

	hit, _ := p.Score(context.Background(), nil, &recommend.ContentItem{ID: "hit"}, nil)
	mid, _ := p.Score(context.Background(), nil, &recommend.ContentItem{ID: "mid"}, nil)
	quiet, _ := p.Score(context.Background(), nil, &recommend.ContentItem{ID: "quiet"}, nil)

	if hit != 1.0 {
		t.Errorf("most popular item score = %f, want 1.0", hit)
	}
	if !(hit > mid && mid > quiet && quiet > 0) {
		t.Errorf("expected hit > mid > quiet > 0, got %f, %f, %f", hit, mid, quiet)
	}
}

func TestPopularityDampingCompressesGaps(t *testing.T) {
	p := popularityFixture(t)

	mid, _ := p.Score(context.Background(), nil, &recommend.ContentItem{ID: "mid"}, nil)
	// Raw weighted counts differ 12.5x (50 shares vs 10 clicks at 0.4);
	// log damping must keep the normalized gap well under that ratio.
	if mid < 0.3 {
		t.Errorf("damped mid score = %f, want >= 0.3", mid)
	}
}

func TestPopularityUnknownAndUntrained(t *testing.T) {
	p := NewPopularity()
	got, err := p.Score(context.Background(), nil, &recommend.ContentItem{ID: "x"}, nil)
	if err != nil || got != 0 {
		t.Errorf("untrained Score() = %f, %v, want 0, nil", got, err)
	}

	p = popularityFixture(t)
	got, _ = p.Score(context.Background(), nil, &recommend.ContentItem{ID: "never-seen"}, nil)
	if got != 0 {
		t.Errorf("unseen item Score() = %f, want 0", got)
	}
}

func TestPopularityTopK(t *testing.T) {
	p := popularityFixture(t)

	top := p.TopK(2, "")
	if len(top) != 2 {
		t.Fatalf("TopK(2) returned %d items", len(top))
	}
	if top[0].Item.ID != "hit" || top[1].Item.ID != "mid" {
		t.Errorf("TopK order = %s, %s, want hit, mid", top[0].Item.ID, top[1].Item.ID)
	}

	food := p.TopK(10, "food")
	for _, c := range food {
		if c.Item.ID == "quiet" {
			t.Error("category filter leaked an art item into food results")
		}
	}
	if len(food) != 2 {
		t.Errorf("TopK food returned %d items, want 2", len(food))
	}

	if got := NewPopularity().TopK(3, ""); got != nil {
		t.Errorf("untrained TopK = %v, want nil", got)
	}
}
