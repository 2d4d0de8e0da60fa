// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package experiment

import (
	"context"
	"sync"
)

// Counters holds the raw tracking counts for one variant. Counters only
// increase; conversion rate is derived at read time, never stored.
type Counters struct {
	Impressions uint64 `json:"impressions"`
	Conversions uint64 `json:"conversions"`
}

// Store is the persistence port for assignments and counters.
// GetOrCreateAssignment must be atomic per (experiment, subject): under
// concurrent first calls exactly one create wins and every caller sees
// the winning variant.
type Store interface {
	// GetOrCreateAssignment returns the subject's sticky variant, creating
	// it with create() when absent. created reports whether this call
	// performed the creation.
	GetOrCreateAssignment(ctx context.Context, experiment, subjectID string, create func() string) (variant string, created bool, err error)

	// GetAssignment returns the subject's variant, or "" when unassigned.
	GetAssignment(ctx context.Context, experiment, subjectID string) (string, error)

	// ClearAssignments removes all assignments for an experiment.
	ClearAssignments(ctx context.Context, experiment string) error

	// AddImpressions adds to a variant's impression counter.
	AddImpressions(ctx context.Context, experiment, variant string, delta uint64) error

	// AddConversions adds to a variant's conversion counter.
	AddConversions(ctx context.Context, experiment, variant string, delta uint64) error

	// GetCounters returns per-variant counters for an experiment. Variants
	// with no recorded events may be absent from the map.
	GetCounters(ctx context.Context, experiment string) (map[string]Counters, error)
}

// MemoryStore is an in-memory Store for tests and single-node deployments
// that can afford to lose experiment state on restart.
type MemoryStore struct {
	mu          sync.Mutex
	assignments map[string]map[string]string
	counters    map[string]map[string]Counters
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assignments: make(map[string]map[string]string),
		counters:    make(map[string]map[string]Counters),
	}
}

// GetOrCreateAssignment implements Store. The whole get-or-create runs
// under one lock, so concurrent first calls serialize and exactly one
// create() result is kept.
func (m *MemoryStore) GetOrCreateAssignment(_ context.Context, experiment, subjectID string, create func() string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subjects := m.assignments[experiment]
	if subjects == nil {
		subjects = make(map[string]string)
		m.assignments[experiment] = subjects
	}
	if variant, ok := subjects[subjectID]; ok {
		return variant, false, nil
	}
	variant := create()
	subjects[subjectID] = variant
	return variant, true, nil
}

// GetAssignment implements Store.
func (m *MemoryStore) GetAssignment(_ context.Context, experiment, subjectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[experiment][subjectID], nil
}

// ClearAssignments implements Store.
func (m *MemoryStore) ClearAssignments(_ context.Context, experiment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, experiment)
	return nil
}

// AddImpressions implements Store.
func (m *MemoryStore) AddImpressions(_ context.Context, experiment, variant string, delta uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.variantCounters(experiment, variant)
	c.Impressions += delta
	m.counters[experiment][variant] = c
	return nil
}

// AddConversions implements Store.
func (m *MemoryStore) AddConversions(_ context.Context, experiment, variant string, delta uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.variantCounters(experiment, variant)
	c.Conversions += delta
	m.counters[experiment][variant] = c
	return nil
}

// GetCounters implements Store.
func (m *MemoryStore) GetCounters(_ context.Context, experiment string) (map[string]Counters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Counters, len(m.counters[experiment]))
	for variant, c := range m.counters[experiment] {
		out[variant] = c
	}
	return out, nil
}

// variantCounters returns the current counters for a variant, creating
// the experiment bucket if needed. Callers must hold mu.
func (m *MemoryStore) variantCounters(experiment, variant string) Counters {
	if m.counters[experiment] == nil {
		m.counters[experiment] = make(map[string]Counters)
	}
	return m.counters[experiment][variant]
}
