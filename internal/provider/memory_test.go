// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	m.SeedDemo(time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC))
	return m
}

func TestMemoryGetUser(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	u, err := m.GetUser(ctx, "demo-food-lover")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if u.ID != "demo-food-lover" {
		t.Errorf("user ID = %q", u.ID)
	}

	if _, err := m.GetUser(ctx, "ghost"); !errors.Is(err, recommend.ErrUserNotFound) {
		t.Errorf("GetUser(ghost) error = %v, want ErrUserNotFound", err)
	}
}

func TestMemoryGetContentByID(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	c, err := m.GetContentByID(ctx, "ago-free-wednesday")
	if err != nil {
		t.Fatalf("GetContentByID() error = %v", err)
	}
	if c.Neighborhood != "Grange Park" {
		t.Errorf("neighborhood = %q", c.Neighborhood)
	}

	if _, err := m.GetContentByID(ctx, "nope"); !errors.Is(err, recommend.ErrContentNotFound) {
		t.Errorf("GetContentByID(nope) error = %v, want ErrContentNotFound", err)
	}
}

func TestMemoryListCandidatesFilters(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter recommend.CandidateFilter
		want   int
	}{
		{name: "no filter", filter: recommend.CandidateFilter{}, want: 5},
		{name: "category food", filter: recommend.CandidateFilter{Category: "food"}, want: 3},
		{name: "category case-insensitive", filter: recommend.CandidateFilter{Category: "FOOD"}, want: 3},
		{name: "neighborhood", filter: recommend.CandidateFilter{Neighborhood: "kensington market"}, want: 1},
		{name: "limit", filter: recommend.CandidateFilter{Limit: 2}, want: 2},
		{name: "category and limit", filter: recommend.CandidateFilter{Category: "food", Limit: 1}, want: 1},
		{name: "no match", filter: recommend.CandidateFilter{Neighborhood: "Scarborough"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := m.ListCandidates(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListCandidates() error = %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

func TestMemoryListCandidatesStableOrder(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	first, _ := m.ListCandidates(ctx, recommend.CandidateFilter{})
	second, _ := m.ListCandidates(ctx, recommend.CandidateFilter{})
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("order differs at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
	if first[0].ID != "kensington-food-crawl" {
		t.Errorf("first item = %q, want insertion order preserved", first[0].ID)
	}
}

func TestMemoryReadsReturnCopies(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	u, _ := m.GetUser(ctx, "demo-food-lover")
	u.ID = "mutated"

	again, _ := m.GetUser(ctx, "demo-food-lover")
	if again.ID != "demo-food-lover" {
		t.Error("catalog user mutated through a returned pointer")
	}
}

func TestMemoryInteractions(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	all, err := m.ListInteractions(ctx, "")
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("seed log has %d interactions, want 6", len(all))
	}

	mine, _ := m.ListInteractions(ctx, "demo-food-lover")
	if len(mine) != 3 {
		t.Errorf("demo-food-lover has %d interactions, want 3", len(mine))
	}
	for _, in := range mine {
		if in.UserID != "demo-food-lover" {
			t.Errorf("foreign interaction %+v in user log", in)
		}
	}

	err = m.LogInteraction(ctx, recommend.Interaction{
		UserID:    "demo-food-lover",
		ContentID: "high-park-cherry-walk",
		Type:      recommend.InteractionView,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("LogInteraction() error = %v", err)
	}
	mine, _ = m.ListInteractions(ctx, "demo-food-lover")
	if len(mine) != 4 {
		t.Errorf("after logging, user has %d interactions, want 4", len(mine))
	}
}

func TestMemoryAddContentReplaces(t *testing.T) {
	m := NewMemory()
	m.AddContent(recommend.ContentItem{ID: "a", Title: "first"})
	m.AddContent(recommend.ContentItem{ID: "a", Title: "second"})

	items, _ := m.ListCandidates(context.Background(), recommend.CandidateFilter{})
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after replace", len(items))
	}
	if items[0].Title != "second" {
		t.Errorf("title = %q, want second", items[0].Title)
	}
}
