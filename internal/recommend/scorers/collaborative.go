// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package scorers

import (
	"context"
	"math"

	"github.com/trendspotter/trendspotter/internal/recommend"
)

// Collaborative scores items by item-item collaborative filtering over
// implicit feedback. Interactions are confidence-weighted by type, so a
// share counts for more than a view. Users with no history score 0 for
// everything; the blender's other signals carry cold-start users.
type Collaborative struct {
	BaseScorer

	// minInteractions is the minimum event count before training a model.
	minInteractions int

	// itemUsers maps item -> user -> confidence. Guarded by stateMu.
	itemUsers map[string]map[string]float64

	// userItems maps user -> item -> confidence. Guarded by stateMu.
	userItems map[string]map[string]float64

	// itemNorms caches per-item vector norms for cosine similarity.
	itemNorms map[string]float64
}

// NewCollaborative returns an untrained collaborative scorer.
func NewCollaborative(minInteractions int) *Collaborative {
	return &Collaborative{minInteractions: minInteractions}
}

// Name implements recommend.Scorer.
func (c *Collaborative) Name() string { return recommend.ScorerCollaborative }

// Train rebuilds the interaction matrices from the full interaction log.
// The new model is swapped in atomically under the state lock; concurrent
// Score calls see either the old model or the new one, never a mix.
func (c *Collaborative) Train(ctx context.Context, interactions []recommend.Interaction, _ []recommend.ContentItem) error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if len(interactions) < c.minInteractions {
		return recommend.ErrNotTrained
	}

	itemUsers := make(map[string]map[string]float64)
	userItems := make(map[string]map[string]float64)
	for _, in := range interactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		conf := in.Type.Confidence()
		iu := itemUsers[in.ContentID]
		if iu == nil {
			iu = make(map[string]float64)
			itemUsers[in.ContentID] = iu
		}
		// Keep the strongest signal per user-item pair.
		if conf > iu[in.UserID] {
			iu[in.UserID] = conf
		}
		ui := userItems[in.UserID]
		if ui == nil {
			ui = make(map[string]float64)
			userItems[in.UserID] = ui
		}
		if conf > ui[in.ContentID] {
			ui[in.ContentID] = conf
		}
	}

	itemNorms := make(map[string]float64, len(itemUsers))
	for id, users := range itemUsers {
		sum := 0.0
		for _, conf := range users {
			sum += conf * conf
		}
		itemNorms[id] = math.Sqrt(sum)
	}

	c.stateMu.Lock()
	c.itemUsers = itemUsers
	c.userItems = userItems
	c.itemNorms = itemNorms
	c.trained = true
	c.stateMu.Unlock()
	return nil
}

// Score returns the confidence-weighted average cosine similarity between
// the candidate and the items the user has interacted with.
func (c *Collaborative) Score(_ context.Context, user *recommend.UserProfile, item *recommend.ContentItem, _ *recommend.ScoringContext) (float64, error) {
	if user == nil {
		return 0, nil
	}

	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	if !c.trained {
		return 0, nil
	}
	history := c.userItems[user.ID]
	if len(history) == 0 {
		return 0, nil
	}

	var weighted, totalConf float64
	for seenID, conf := range history {
		if seenID == item.ID {
			continue
		}
		weighted += conf * c.itemCosine(seenID, item.ID)
		totalConf += conf
	}
	if totalConf == 0 {
		return 0, nil
	}
	return clamp01(weighted / totalConf), nil
}

// itemCosine computes cosine similarity between two items' user vectors.
// Callers must hold stateMu.
func (c *Collaborative) itemCosine(a, b string) float64 {
	usersA := c.itemUsers[a]
	usersB := c.itemUsers[b]
	if len(usersA) == 0 || len(usersB) == 0 {
		return 0
	}
	if len(usersB) < len(usersA) {
		usersA, usersB = usersB, usersA
		a, b = b, a
	}
	dot := 0.0
	for userID, confA := range usersA {
		if confB, ok := usersB[userID]; ok {
			dot += confA * confB
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (c.itemNorms[a] * c.itemNorms[b])
}
