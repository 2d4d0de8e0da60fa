// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides layered configuration loading for Trendspotter.
//
// Configuration is loaded with koanf from three layers, in increasing
// precedence: built-in defaults, an optional YAML file, and environment
// variables. Validation runs at load time and is fatal: a configuration
// that violates an engine invariant (blend weights not summing to 1.0,
// experiment distributions not summing to 1.0) must prevent startup.
package config

import (
	"fmt"
	"math"
	"time"
)

// weightSumTolerance is the permitted floating-point drift when checking
// that a weight distribution sums to 1.0.
const weightSumTolerance = 1e-9

// Config is the root configuration for the service.
type Config struct {
	Server      ServerConfig       `koanf:"server"`
	Logging     LoggingConfig      `koanf:"logging"`
	Storage     StorageConfig      `koanf:"storage"`
	Recommend   RecommendConfig    `koanf:"recommend"`
	Experiments []ExperimentConfig `koanf:"experiments"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig contains settings for the persisted experiment state store.
type StorageConfig struct {
	// Backend selects the store implementation: "badger" or "memory".
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory. Ignored for the memory backend.
	Path string `koanf:"path"`
}

// RecommendConfig contains recommendation engine settings.
type RecommendConfig struct {
	// Weights defines the blend weights per sub-model. Must sum to 1.0.
	Weights WeightsConfig `koanf:"weights"`

	// MinScoreFloor is the minimum blended score a candidate must clear
	// before backfill is considered for the remainder of the result set.
	MinScoreFloor float64 `koanf:"min_score_floor"`

	// BackfillEnabled controls whether under-filled result sets are
	// supplemented with globally popular content.
	BackfillEnabled bool `koanf:"backfill_enabled"`

	// EventWindowDays is the near-future window inside which upcoming
	// events receive the temporal boost.
	EventWindowDays int `koanf:"event_window_days"`

	// Workers is the size of the candidate scoring worker pool.
	Workers int `koanf:"workers"`

	// MaxCandidates limits how many candidates are scored per request.
	MaxCandidates int `koanf:"max_candidates"`

	// DefaultCount and MaxCount bound the requested result size.
	DefaultCount int `koanf:"default_count"`
	MaxCount     int `koanf:"max_count"`

	// TrainInterval is the time between background scorer refreshes.
	TrainInterval time.Duration `koanf:"train_interval"`

	// MinInteractions is the minimum number of interaction events required
	// before the collaborative scorer trains.
	MinInteractions int `koanf:"min_interactions"`

	// SeedDemoData loads the built-in demo catalog into the in-memory
	// provider at startup. For local runs without a real data source.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// EventWindow returns the upcoming-event window as a duration.
func (c RecommendConfig) EventWindow() time.Duration {
	return time.Duration(c.EventWindowDays) * 24 * time.Hour
}

// WeightsConfig defines the contribution of each sub-model to the blended
// score. Unlike an ensemble that renormalizes at runtime, these are fixed
// and must sum to exactly 1.0; Validate rejects anything else.
type WeightsConfig struct {
	Collaborative float64 `koanf:"collaborative"`
	Content       float64 `koanf:"content"`
	Location      float64 `koanf:"location"`
	Temporal      float64 `koanf:"temporal"`
}

// Sum returns the total of all weights.
func (w WeightsConfig) Sum() float64 {
	return w.Collaborative + w.Content + w.Location + w.Temporal
}

// Validate checks that the weights form a valid distribution.
func (w WeightsConfig) Validate() error {
	for name, v := range w.ToMap() {
		if v < 0 {
			return fmt.Errorf("recommend.weights.%s must be non-negative, got %f", name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("recommend.weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// ToMap returns the weights keyed by scorer name.
func (w WeightsConfig) ToMap() map[string]float64 {
	return map[string]float64{
		"collaborative": w.Collaborative,
		"content":       w.Content,
		"location":      w.Location,
		"temporal":      w.Temporal,
	}
}

// ExperimentConfig declares one experiment: its variants and, optionally,
// a weighted distribution over them. Experiments are static, process-wide
// configuration; runtime state (assignments, counters) lives in the store.
type ExperimentConfig struct {
	Name     string    `koanf:"name"`
	Enabled  bool      `koanf:"enabled"`
	Variants []string  `koanf:"variants"`
	Weights  []float64 `koanf:"weights"`
}

// Validate checks a single experiment declaration.
func (e ExperimentConfig) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("experiment name must not be empty")
	}
	if len(e.Variants) == 0 {
		return fmt.Errorf("experiment %q must declare at least one variant", e.Name)
	}
	seen := make(map[string]struct{}, len(e.Variants))
	for _, v := range e.Variants {
		if v == "" {
			return fmt.Errorf("experiment %q has an empty variant name", e.Name)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("experiment %q declares variant %q twice", e.Name, v)
		}
		seen[v] = struct{}{}
	}
	if len(e.Weights) == 0 {
		return nil // uniform distribution
	}
	if len(e.Weights) != len(e.Variants) {
		return fmt.Errorf("experiment %q has %d weights for %d variants",
			e.Name, len(e.Weights), len(e.Variants))
	}
	var sum float64
	for i, w := range e.Weights {
		if w < 0 {
			return fmt.Errorf("experiment %q weight for variant %q must be non-negative, got %f",
				e.Name, e.Variants[i], w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("experiment %q weights must sum to 1.0, got %f", e.Name, sum)
	}
	return nil
}

// Validate checks the whole configuration for invariant violations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}

	switch c.Storage.Backend {
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path must be set for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend must be \"badger\" or \"memory\", got %q", c.Storage.Backend)
	}

	if err := c.Recommend.Weights.Validate(); err != nil {
		return err
	}
	if c.Recommend.MinScoreFloor < 0 || c.Recommend.MinScoreFloor > 1 {
		return fmt.Errorf("recommend.min_score_floor must be in [0, 1], got %f", c.Recommend.MinScoreFloor)
	}
	if c.Recommend.EventWindowDays < 1 {
		return fmt.Errorf("recommend.event_window_days must be positive, got %d", c.Recommend.EventWindowDays)
	}
	if c.Recommend.Workers < 1 {
		return fmt.Errorf("recommend.workers must be positive, got %d", c.Recommend.Workers)
	}
	if c.Recommend.MaxCandidates < 1 {
		return fmt.Errorf("recommend.max_candidates must be positive, got %d", c.Recommend.MaxCandidates)
	}
	if c.Recommend.DefaultCount < 1 {
		return fmt.Errorf("recommend.default_count must be positive, got %d", c.Recommend.DefaultCount)
	}
	if c.Recommend.MaxCount < c.Recommend.DefaultCount {
		return fmt.Errorf("recommend.max_count must be >= recommend.default_count, got %d < %d",
			c.Recommend.MaxCount, c.Recommend.DefaultCount)
	}

	names := make(map[string]struct{}, len(c.Experiments))
	for _, exp := range c.Experiments {
		if err := exp.Validate(); err != nil {
			return err
		}
		if _, dup := names[exp.Name]; dup {
			return fmt.Errorf("experiment %q declared twice", exp.Name)
		}
		names[exp.Name] = struct{}{}
	}

	return nil
}
