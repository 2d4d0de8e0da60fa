// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"fmt"
	"math"
	"time"
)

// weightSumTolerance is the floating point tolerance applied when
// checking that blend weights sum to 1.0.
const weightSumTolerance = 1e-9

// Weights holds the linear blend weights for the four sub-scores.
// Weights must be non-negative and sum to 1.0.
type Weights struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
	Location      float64 `json:"location"`
	Temporal      float64 `json:"temporal"`
}

// DefaultWeights returns the standard hybrid blend.
func DefaultWeights() Weights {
	return Weights{
		Collaborative: 0.35,
		Content:       0.30,
		Location:      0.25,
		Temporal:      0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Collaborative + w.Content + w.Location + w.Temporal
}

// Validate checks that weights are non-negative and sum to 1.0
// within floating point tolerance.
func (w Weights) Validate() error {
	for name, v := range w.Map() {
		if v < 0 {
			return fmt.Errorf("weight %q is negative: %f", name, v)
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > weightSumTolerance {
		return fmt.Errorf("weights sum to %f, expected 1.0", w.Sum())
	}
	return nil
}

// Map returns the weights keyed by scorer name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		ScorerCollaborative: w.Collaborative,
		ScorerContent:       w.Content,
		ScorerLocation:      w.Location,
		ScorerTemporal:      w.Temporal,
	}
}

// Scorer name constants. These are the sub-score keys in ScoredCandidate
// and the weight keys when blending.
const (
	ScorerCollaborative = "collaborative"
	ScorerContent       = "content"
	ScorerLocation      = "location"
	ScorerTemporal      = "temporal"
)

// Config holds engine configuration.
type Config struct {
	// Weights is the hybrid blend used by StrategyHybrid.
	Weights Weights

	// MinScoreFloor is the blended-score threshold below which backfill
	// kicks in to pad the result.
	MinScoreFloor float64

	// BackfillEnabled controls popularity backfill for thin results.
	BackfillEnabled bool

	// EventWindow is how far ahead of an event its temporal boost applies.
	EventWindow time.Duration

	// Workers is the scoring worker pool size.
	Workers int

	// MaxCandidates caps the candidate set considered per request.
	MaxCandidates int

	// DefaultCount is the result size when the request leaves Count unset.
	DefaultCount int

	// MaxCount is the hard cap on requested result size.
	MaxCount int

	// TrainInterval is the period of the background retrain loop.
	TrainInterval time.Duration

	// MinInteractions is the minimum interaction history size before the
	// collaborative scorer trains a model.
	MinInteractions int
}

// DefaultConfig returns engine defaults.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		MinScoreFloor:   0.05,
		BackfillEnabled: true,
		EventWindow:     30 * 24 * time.Hour,
		Workers:         8,
		MaxCandidates:   1000,
		DefaultCount:    10,
		MaxCount:        50,
		TrainInterval:   time.Hour,
		MinInteractions: 20,
	}
}

// Validate checks configuration invariants. Weight validation failures are
// fatal at startup; a misweighted blend silently distorts every ranking.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("blend weights: %w", err)
	}
	if c.MinScoreFloor < 0 || c.MinScoreFloor > 1 {
		return fmt.Errorf("min score floor %f outside [0, 1]", c.MinScoreFloor)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.DefaultCount < 1 || c.MaxCount < c.DefaultCount {
		return fmt.Errorf("invalid count bounds: default %d, max %d", c.DefaultCount, c.MaxCount)
	}
	if c.EventWindow <= 0 {
		return fmt.Errorf("event window must be positive, got %s", c.EventWindow)
	}
	return nil
}

// strategyWeights returns the blend weights for a strategy preset.
func (c Config) strategyWeights(s Strategy) (Weights, error) {
	switch s {
	case StrategyHybrid, "":
		return c.Weights, nil
	case StrategyCollaborative:
		return Weights{Collaborative: 1.0}, nil
	case StrategyContent:
		return Weights{Content: 1.0}, nil
	case StrategyLocation:
		return Weights{Location: 0.6, Temporal: 0.4}, nil
	default:
		return Weights{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}
