// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package experiment implements A/B experiment assignment and metrics:
// sticky weighted variant assignment per subject, impression and
// conversion counters, and derived per-variant conversion rates.
package experiment

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// weightSumTolerance is the floating point tolerance applied when
// checking that variant weights sum to 1.0.
const weightSumTolerance = 1e-9

var (
	// ErrExperimentNotFound indicates an unknown experiment name.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrSubjectRequired indicates a request without a subject identifier.
	ErrSubjectRequired = errors.New("subject identifier required")
)

// Definition declares one experiment: its variants and their traffic
// weights. Definitions come from configuration and are immutable at
// runtime; changing traffic split means redeploying configuration.
type Definition struct {
	// Name is the unique experiment identifier, e.g. "HOMEPAGE_LAYOUT".
	Name string `json:"name"`

	// Enabled gates the experiment. Disabled experiments assign no
	// variants and drop tracking calls without error.
	Enabled bool `json:"enabled"`

	// Variants is the ordered variant name list.
	Variants []string `json:"variants"`

	// Weights is the traffic weight per variant, aligned with Variants.
	// Weights must be non-negative and sum to 1.0.
	Weights []float64 `json:"weights"`
}

// Validate checks the definition's structural invariants.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("experiment name required")
	}
	if len(d.Variants) == 0 {
		return fmt.Errorf("experiment %q has no variants", d.Name)
	}
	if len(d.Weights) != len(d.Variants) {
		return fmt.Errorf("experiment %q: %d weights for %d variants", d.Name, len(d.Weights), len(d.Variants))
	}
	seen := make(map[string]struct{}, len(d.Variants))
	for _, v := range d.Variants {
		if v == "" {
			return fmt.Errorf("experiment %q has an empty variant name", d.Name)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("experiment %q has duplicate variant %q", d.Name, v)
		}
		seen[v] = struct{}{}
	}
	sum := 0.0
	for i, w := range d.Weights {
		if w < 0 {
			return fmt.Errorf("experiment %q: variant %q has negative weight %f", d.Name, d.Variants[i], w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("experiment %q: weights sum to %f, expected 1.0", d.Name, sum)
	}
	return nil
}

// HasVariant reports whether name is one of the defined variants.
func (d Definition) HasVariant(name string) bool {
	for _, v := range d.Variants {
		if v == name {
			return true
		}
	}
	return false
}

// pickVariant maps a uniform draw in [0, 1) to a variant by walking the
// cumulative weight distribution. Accumulated floating point error can
// leave a sliver at the top of the range; it falls to the last variant.
func (d Definition) pickVariant(draw float64) string {
	cumulative := 0.0
	for i, w := range d.Weights {
		cumulative += w
		if draw < cumulative {
			return d.Variants[i]
		}
	}
	return d.Variants[len(d.Variants)-1]
}

// Registry holds the configured experiment definitions. Read-only after
// construction, so lookups need no locking.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry validates the definitions and builds a registry.
func NewRegistry(defs []Definition) (*Registry, error) {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[d.Name]; dup {
			return nil, fmt.Errorf("duplicate experiment %q", d.Name)
		}
		m[d.Name] = d
	}
	return &Registry{defs: m}, nil
}

// Get returns the definition for name, or ErrExperimentNotFound.
func (r *Registry) Get(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrExperimentNotFound, name)
	}
	return d, nil
}

// Names returns all experiment names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
