// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider supplies DataProvider implementations: the in-memory
// catalog used for single-node deployments and tests, and a circuit
// breaker decorator for remote providers.
package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Memory is an in-memory DataProvider. Safe for concurrent use; reads
// return copies so callers can never mutate the catalog.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]recommend.UserProfile
	items        map[string]recommend.ContentItem
	order        []string
	interactions []recommend.Interaction
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]recommend.UserProfile),
		items: make(map[string]recommend.ContentItem),
	}
}

// AddUser inserts or replaces a user profile.
func (m *Memory) AddUser(u recommend.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// AddContent inserts or replaces a content item. Items list in insertion
// order, so candidate sets are stable across calls.
func (m *Memory) AddContent(c recommend.ContentItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.items[c.ID] = c
}

// GetUser implements recommend.DataProvider.
func (m *Memory) GetUser(_ context.Context, id string) (*recommend.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", recommend.ErrUserNotFound, id)
	}
	return &u, nil
}

// GetContentByID implements recommend.DataProvider.
func (m *Memory) GetContentByID(_ context.Context, id string) (*recommend.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", recommend.ErrContentNotFound, id)
	}
	return &c, nil
}

// ListCandidates implements recommend.DataProvider.
func (m *Memory) ListCandidates(_ context.Context, filter recommend.CandidateFilter) ([]recommend.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]recommend.ContentItem, 0, len(m.order))
	for _, id := range m.order {
		item := m.items[id]
		if filter.Category != "" && !hasFold(item.Categories, filter.Category) {
			continue
		}
		if filter.Neighborhood != "" && !equalFold(item.Neighborhood, filter.Neighborhood) {
			continue
		}
		out = append(out, item)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// ListInteractions implements recommend.DataProvider. An empty userID
// returns the full log.
func (m *Memory) ListInteractions(_ context.Context, userID string) ([]recommend.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if userID == "" {
		out := make([]recommend.Interaction, len(m.interactions))
		copy(out, m.interactions)
		return out, nil
	}
	var out []recommend.Interaction
	for _, in := range m.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

// LogInteraction implements recommend.DataProvider.
func (m *Memory) LogInteraction(_ context.Context, in recommend.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, in)
	return nil
}

// SeedDemo loads a small Toronto catalog with a few demo users and enough
// interaction history to train the collaborative and popularity models.
// Intended for local runs without a real data source.
func (m *Memory) SeedDemo(now time.Time) {
	nextWeekend := now.Add(5 * 24 * time.Hour)
	items := []recommend.ContentItem{
		{
			ID:           "kensington-food-crawl",
			Title:        "Kensington Market Food Crawl",
			Description:  "A self-guided tour of the market's best snack counters",
			Categories:   []string{"food"},
			Tags:         []string{"market", "street-food", "summer"},
			Neighborhood: "Kensington Market",
			CreatedAt:    now.Add(-20 * 24 * time.Hour),
		},
		{
			ID:           "high-park-cherry-walk",
			Title:        "High Park Cherry Blossom Walk",
			Description:  "Sakura viewing along the west ravine trails",
			Categories:   []string{"outdoor"},
			Tags:         []string{"park", "nature", "spring"},
			Neighborhood: "High Park",
			CreatedAt:    now.Add(-40 * 24 * time.Hour),
		},
		{
			ID:           "distillery-night-market",
			Title:        "Distillery District Night Market",
			Description:  "Evening vendors, food stalls and live music",
			Categories:   []string{"food", "music"},
			Tags:         []string{"market", "nightlife", "summer"},
			Neighborhood: "Distillery District",
			EventTime:    &nextWeekend,
			Venue:        "Trinity Square",
			CreatedAt:    now.Add(-10 * 24 * time.Hour),
		},
		{
			ID:           "ago-free-wednesday",
			Title:        "AGO Free Wednesday Night",
			Description:  "Free admission to the Art Gallery of Ontario collection",
			Categories:   []string{"art"},
			Tags:         []string{"gallery", "free"},
			Neighborhood: "Grange Park",
			CreatedAt:    now.Add(-60 * 24 * time.Hour),
		},
		{
			ID:           "leslieville-brunch-guide",
			Title:        "Leslieville Brunch Guide",
			Description:  "Where to queue for brunch east of the Don",
			Categories:   []string{"food"},
			Tags:         []string{"brunch", "cafe"},
			Neighborhood: "Leslieville",
			CreatedAt:    now.Add(-5 * 24 * time.Hour),
		},
	}
	for _, item := range items {
		m.AddContent(item)
	}

	users := []recommend.UserProfile{
		{
			ID:            "demo-food-lover",
			Interests:     []string{"food", "market", "brunch"},
			Neighborhoods: []string{"Kensington Market", "Leslieville"},
		},
		{
			ID:            "demo-art-walker",
			Interests:     []string{"art", "gallery", "nature"},
			Neighborhoods: []string{"Grange Park"},
		},
	}
	for _, u := range users {
		m.AddUser(u)
	}

	seedPairs := []struct {
		user, content string
		typ           recommend.InteractionType
	}{
		{"demo-food-lover", "kensington-food-crawl", recommend.InteractionSave},
		{"demo-food-lover", "distillery-night-market", recommend.InteractionClick},
		{"demo-food-lover", "leslieville-brunch-guide", recommend.InteractionShare},
		{"demo-art-walker", "ago-free-wednesday", recommend.InteractionSave},
		{"demo-art-walker", "high-park-cherry-walk", recommend.InteractionClick},
		{"demo-art-walker", "kensington-food-crawl", recommend.InteractionView},
	}
	for i, p := range seedPairs {
		_ = m.LogInteraction(context.Background(), recommend.Interaction{
			UserID:    p.user,
			ContentID: p.content,
			Type:      p.typ,
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}
}
