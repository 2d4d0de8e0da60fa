// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"testing"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

func TestContentScore(t *testing.T) {
	tests := []struct {
		name     string
		user     *recommend.UserProfile
		item     recommend.ContentItem
		wantZero bool
	}{
		{
			name: "matching interests score positive",
			user: &recommend.UserProfile{ID: "u1", Interests: []string{"food", "market"}},
			item: recommend.ContentItem{
				ID:         "c1",
				Title:      "Kensington Market Food Crawl",
				Categories: []string{"food"},
				Tags:       []string{"market", "street-food"},
			},
			wantZero: false,
		},
		{
			name: "disjoint interests score zero",
			user: &recommend.UserProfile{ID: "u2", Interests: []string{"hockey"}},
			item: recommend.ContentItem{
				ID:         "c2",
				Title:      "Gallery Opening",
				Categories: []string{"art"},
				Tags:       []string{"gallery"},
			},
			wantZero: true,
		},
		{
			name:     "user without interests scores zero",
			user:     &recommend.UserProfile{ID: "u3"},
			item:     recommend.ContentItem{ID: "c3", Tags: []string{"food"}},
			wantZero: true,
		},
		{
			name:     "nil user scores zero",
			user:     nil,
			item:     recommend.ContentItem{ID: "c4", Tags: []string{"food"}},
			wantZero: true,
		},
	}

	scorer := NewContent()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scorer.Score(context.Background(), tt.user, &tt.item, &recommend.ScoringContext{})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if tt.wantZero && got != 0 {
				t.Errorf("Score() = %f, want 0", got)
			}
			if !tt.wantZero && got <= 0 {
				t.Errorf("Score() = %f, want > 0", got)
			}
			if got < 0 || got > 1 {
				t.Errorf("Score() = %f, outside [0, 1]", got)
			}
		})
	}
}

func TestContentScoreMoreOverlapScoresHigher(t *testing.T) {
	user := &recommend.UserProfile{ID: "u1", Interests: []string{"food", "market", "brunch"}}
	strong := recommend.ContentItem{
		ID:         "strong",
		Title:      "Market Brunch Guide",
		Categories: []string{"food"},
		Tags:       []string{"market", "brunch"},
	}
	weak := recommend.ContentItem{
		ID:         "weak",
		Title:      "Jazz Night",
		Categories: []string{"music"},
		Tags:       []string{"brunch"},
	}

	scorer := NewContent()
	strongScore, _ := scorer.Score(context.Background(), user, &strong, &recommend.ScoringContext{})
	weakScore, _ := scorer.Score(context.Background(), user, &weak, &recommend.ScoringContext{})
	if strongScore <= weakScore {
		t.Errorf("strong overlap %f should exceed weak overlap %f", strongScore, weakScore)
	}
}

func TestContentSimilar(t *testing.T) {
	a := recommend.ContentItem{
		ID:         "a",
		Title:      "Night Market",
		Categories: []string{"food", "music"},
		Tags:       []string{"market", "nightlife"},
	}
	b := recommend.ContentItem{
		ID:         "b",
		Title:      "Harbour Night Market",
		Categories: []string{"food"},
		Tags:       []string{"market", "nightlife"},
	}
	c := recommend.ContentItem{
		ID:         "c",
		Title:      "Pottery Workshop",
		Categories: []string{"art"},
		Tags:       []string{"craft"},
	}

	scorer := NewContent()
	abSim := scorer.Similar(&a, &b)
	acSim := scorer.Similar(&a, &c)
	if abSim <= acSim {
		t.Errorf("similar items %f should outscore dissimilar %f", abSim, acSim)
	}
	if got := scorer.Similar(&b, &a); got != abSim {
		t.Errorf("Similar() not symmetric: %f vs %f", abSim, got)
	}
	if self := scorer.Similar(&a, &a); self <= abSim {
		t.Errorf("self similarity %f should be the maximum, got %f for a-b", self, abSim)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical sets", a: []string{"x", "y"}, b: []string{"x", "y"}, want: 1.0},
		{name: "disjoint sets", a: []string{"x"}, b: []string{"y"}, want: 0},
		{name: "half overlap", a: []string{"x", "y"}, b: []string{"y", "z"}, want: 1.0 / 3.0},
		{name: "case insensitive", a: []string{"Food"}, b: []string{"food"}, want: 1.0},
		{name: "both empty", a: nil, b: nil, want: 0},
		{name: "one empty", a: []string{"x"}, b: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("jaccard(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
