// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/metrics"
)

// Assignment is a subject's sticky variant in one experiment.
type Assignment struct {
	Experiment string    `json:"experiment"`
	SubjectID  string    `json:"subject_id"`
	Variant    string    `json:"variant"`
	AssignedAt time.Time `json:"assigned_at"`
	// New reports whether this call created the assignment.
	New bool `json:"new,omitempty"`
}

// VariantMetrics is the tracked state of one variant with its derived
// conversion rate.
type VariantMetrics struct {
	Variant     string  `json:"variant"`
	Impressions uint64  `json:"impressions"`
	Conversions uint64  `json:"conversions"`
	// ConversionRate is conversions per impression as a percentage.
	// Always derived from the counters, never stored.
	ConversionRate float64 `json:"conversion_rate"`
}

// Metrics is the per-variant metrics snapshot of one experiment.
type Metrics struct {
	Experiment string           `json:"experiment"`
	Enabled    bool             `json:"enabled"`
	Variants   []VariantMetrics `json:"variants"`
}

// Service implements experiment assignment and tracking over a Store.
// Assignments are sticky: once a subject draws a variant it keeps it for
// the experiment's lifetime, regardless of later weight changes.
type Service struct {
	registry *Registry
	store    Store
	logger   zerolog.Logger

	// rngMu guards rng; math/rand sources are not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand

	nowFn func() time.Time
}

// NewService builds an experiment service. seed fixes the assignment RNG
// for reproducible tests; pass 0 for a time-based seed.
func NewService(registry *Registry, store Store, seed int64) *Service {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		registry: registry,
		store:    store,
		logger:   logging.With().Str("component", "experiment").Logger(),
		rng:      rand.New(rand.NewSource(seed)),
		nowFn:    time.Now,
	}
}

// GetVariant returns the subject's sticky variant, assigning one on first
// call. Disabled and unknown experiments yield a nil assignment and no
// error, so feature code can query without guarding experiment rollout.
func (s *Service) GetVariant(ctx context.Context, experiment, subjectID string) (*Assignment, error) {
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}
	def, err := s.registry.Get(experiment)
	if err != nil || !def.Enabled {
		return nil, nil
	}

	variant, created, err := s.store.GetOrCreateAssignment(ctx, experiment, subjectID, func() string {
		return def.pickVariant(s.draw())
	})
	if err != nil {
		return nil, fmt.Errorf("assigning variant: %w", err)
	}
	if created {
		metrics.ExperimentAssignments.WithLabelValues(experiment, variant).Inc()
		s.logger.Debug().
			Str("experiment", experiment).
			Str("subject_id", subjectID).
			Str("variant", variant).
			Msg("Variant assigned")
	}
	return &Assignment{
		Experiment: experiment,
		SubjectID:  subjectID,
		Variant:    variant,
		AssignedAt: s.nowFn(),
		New:        created,
	}, nil
}

// TrackImpression records an impression against the subject's variant.
// Disabled experiments and unassigned subjects drop the event silently.
func (s *Service) TrackImpression(ctx context.Context, experiment, subjectID string) error {
	variant, err := s.resolveVariant(ctx, experiment, subjectID)
	if err != nil || variant == "" {
		return err
	}
	if err := s.store.AddImpressions(ctx, experiment, variant, 1); err != nil {
		return fmt.Errorf("tracking impression: %w", err)
	}
	metrics.ExperimentImpressions.WithLabelValues(experiment, variant).Inc()
	return nil
}

// TrackConversion records a conversion against the subject's variant.
// Conversions are not validated against impressions; a subject may
// convert through a path that never recorded an impression.
func (s *Service) TrackConversion(ctx context.Context, experiment, subjectID string) error {
	variant, err := s.resolveVariant(ctx, experiment, subjectID)
	if err != nil || variant == "" {
		return err
	}
	if err := s.store.AddConversions(ctx, experiment, variant, 1); err != nil {
		return fmt.Errorf("tracking conversion: %w", err)
	}
	metrics.ExperimentConversions.WithLabelValues(experiment, variant).Inc()
	return nil
}

// GetMetrics returns the per-variant metrics snapshot for an experiment.
// Every defined variant appears, including those with no events yet.
func (s *Service) GetMetrics(ctx context.Context, experiment string) (*Metrics, error) {
	def, err := s.registry.Get(experiment)
	if err != nil {
		return nil, err
	}
	counters, err := s.store.GetCounters(ctx, experiment)
	if err != nil {
		return nil, fmt.Errorf("reading counters: %w", err)
	}

	out := &Metrics{
		Experiment: def.Name,
		Enabled:    def.Enabled,
		Variants:   make([]VariantMetrics, 0, len(def.Variants)),
	}
	for _, variant := range def.Variants {
		c := counters[variant]
		out.Variants = append(out.Variants, VariantMetrics{
			Variant:        variant,
			Impressions:    c.Impressions,
			Conversions:    c.Conversions,
			ConversionRate: conversionRate(c),
		})
	}
	return out, nil
}

// Reset clears all assignments for an experiment. Counters are kept;
// resetting mid-flight invalidates the analysis, not the raw counts.
func (s *Service) Reset(ctx context.Context, experiment string) error {
	if _, err := s.registry.Get(experiment); err != nil {
		return err
	}
	return s.store.ClearAssignments(ctx, experiment)
}

// Registry exposes the configured definitions, for listings.
func (s *Service) Registry() *Registry { return s.registry }

// resolveVariant finds the subject's existing assignment for tracking.
// Empty variant means no-op: disabled or unknown experiment, or an
// unassigned subject.
func (s *Service) resolveVariant(ctx context.Context, experiment, subjectID string) (string, error) {
	if subjectID == "" {
		return "", ErrSubjectRequired
	}
	def, err := s.registry.Get(experiment)
	if err != nil || !def.Enabled {
		return "", nil
	}
	variant, err := s.store.GetAssignment(ctx, experiment, subjectID)
	if err != nil {
		return "", fmt.Errorf("resolving assignment: %w", err)
	}
	return variant, nil
}

// draw produces one uniform sample in [0, 1) under the RNG lock.
func (s *Service) draw() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// conversionRate derives the percentage conversion rate. The impression
// floor of 1 keeps the division defined for variants with conversions
// but no impressions.
func conversionRate(c Counters) float64 {
	impressions := c.Impressions
	if impressions == 0 {
		impressions = 1
	}
	return float64(c.Conversions) / float64(impressions) * 100
}
