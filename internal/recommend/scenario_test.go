// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend_test

import (
	"context"
	"testing"
	"time"

	"github.com/trendspotter/trendspotter/internal/provider"
	"github.com/trendspotter/trendspotter/internal/recommend"
	"github.com/trendspotter/trendspotter/internal/recommend/scorers"
)

// Full-pipeline ranking with the real scorers: a food lover from
// Kensington Market must see the local upcoming food event first, the
// out-of-neighborhood food item second, and the unrelated item last.
func TestHybridRankingScenario(t *testing.T) {
	now := time.Now()
	eventSoon := now.Add(3 * 24 * time.Hour)

	mem := provider.NewMemory()
	mem.AddUser(recommend.UserProfile{
		ID:            "u1",
		Interests:     []string{"food", "outdoor"},
		Neighborhoods: []string{"Kensington Market"},
	})
	mem.AddContent(recommend.ContentItem{
		ID:           "a",
		Title:        "Kensington Food Pop-Up",
		Categories:   []string{"food"},
		Tags:         []string{"food"},
		Neighborhood: "Kensington Market",
		EventTime:    &eventSoon,
		CreatedAt:    now.Add(-1 * 24 * time.Hour),
	})
	mem.AddContent(recommend.ContentItem{
		ID:           "b",
		Title:        "North York Food Hall",
		Categories:   []string{"food"},
		Tags:         []string{"food"},
		Neighborhood: "North York",
		CreatedAt:    now.Add(-2 * 24 * time.Hour),
	})
	mem.AddContent(recommend.ContentItem{
		ID:         "c",
		Title:      "Gadget Repair Workshop",
		Categories: []string{"tech"},
		Tags:       []string{"gadgets"},
		CreatedAt:  now.Add(-3 * 24 * time.Hour),
	})

	cfg := recommend.DefaultConfig()
	cfg.Workers = 2
	cfg.MinScoreFloor = 0
	cfg.BackfillEnabled = false

	engine, err := recommend.NewEngine(cfg, mem, []recommend.Scorer{
		scorers.NewCollaborative(1),
		scorers.NewContent(),
		scorers.NewLocation(),
		scorers.NewTemporal(cfg.EventWindow),
	}, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	result, err := engine.Recommend(context.Background(), recommend.Request{
		UserID: "u1",
		Count:  3,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(result.Items))
	}

	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if result.Items[i].Item.ID != want {
			t.Errorf("position %d = %q (score %.3f), want %q",
				i, result.Items[i].Item.ID, result.Items[i].Score, want)
		}
	}
	if result.Items[0].Score <= result.Items[1].Score {
		t.Error("local event should outscore the out-of-neighborhood item")
	}
	if result.Items[1].Score <= result.Items[2].Score {
		t.Error("matching-interest item should outscore the unrelated item")
	}
}
