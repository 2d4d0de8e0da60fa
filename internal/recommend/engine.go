// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recommend implements the hybrid recommendation engine: four
// independent signal scorers blended into a single ranking, with a
// popularity fallback for thin results.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/metrics"
)

// Backfiller supplies the fallback candidate set used to pad thin results.
type Backfiller interface {
	TopK(n int, category string) []ScoredCandidate
}

// ItemSimilarity is implemented by scorers that can compare two items
// directly, backing the similar-content lookup.
type ItemSimilarity interface {
	Similar(a, b *ContentItem) float64
}

// Engine orchestrates scoring: it fans candidates out to the signal
// scorers over a bounded worker pool, blends the sub-scores, ranks, and
// backfills. Engines are safe for concurrent use.
type Engine struct {
	cfg      Config
	provider DataProvider
	scorers  []Scorer
	backfill Backfiller
	logger   zerolog.Logger

	// nowFn is the clock; replaced in tests for deterministic seasons.
	nowFn func() time.Time

	// trainingMu gates retraining so overlapping cycles collapse into one.
	trainingMu sync.Mutex
}

// NewEngine builds an engine from its collaborators. Configuration is
// validated here; a bad blend weight set fails construction.
func NewEngine(cfg Config, provider DataProvider, signalScorers []Scorer, backfill Backfiller) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if provider == nil {
		return nil, errors.New("engine requires a data provider")
	}
	if len(signalScorers) == 0 {
		return nil, errors.New("engine requires at least one scorer")
	}
	return &Engine{
		cfg:      cfg,
		provider: provider,
		scorers:  signalScorers,
		backfill: backfill,
		logger:   logging.With().Str("component", "recommend").Logger(),
		nowFn:    time.Now,
	}, nil
}

// Recommend generates personalized recommendations for a user.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := e.nowFn()
	req = e.normalize(req)

	weights, err := e.cfg.strategyWeights(req.Strategy)
	if err != nil {
		return nil, err
	}

	user, err := e.provider.GetUser(ctx, req.UserID)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues(string(req.Strategy), "error").Inc()
		return nil, fmt.Errorf("resolving user %q: %w", req.UserID, err)
	}

	candidates, err := e.provider.ListCandidates(ctx, CandidateFilter{Limit: e.cfg.MaxCandidates})
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues(string(req.Strategy), "error").Inc()
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	sctx := e.scoringContext(req)
	scored := e.scoreAll(ctx, user, candidates, sctx, weights)
	result := e.rank(scored, req, len(candidates), start)
	metrics.RecommendRequestsTotal.WithLabelValues(string(req.Strategy), "ok").Inc()
	metrics.RecommendDuration.WithLabelValues(string(req.Strategy)).Observe(e.nowFn().Sub(start).Seconds())
	return result, nil
}

// Similar returns items most similar to the given content item by
// attribute similarity. The source item itself is excluded.
func (e *Engine) Similar(ctx context.Context, contentID string, count int) (*Result, error) {
	start := e.nowFn()
	count = e.clampCount(count)

	source, err := e.provider.GetContentByID(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("resolving content %q: %w", contentID, err)
	}

	var sim ItemSimilarity
	for _, s := range e.scorers {
		if is, ok := s.(ItemSimilarity); ok {
			sim = is
			break
		}
	}
	if sim == nil {
		return nil, errors.New("no item similarity scorer configured")
	}

	candidates, err := e.provider.ListCandidates(ctx, CandidateFilter{Limit: e.cfg.MaxCandidates})
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		if candidates[i].ID == source.ID {
			continue
		}
		score := sim.Similar(source, &candidates[i])
		scored = append(scored, ScoredCandidate{
			Item:   candidates[i],
			Score:  score,
			Scores: map[string]float64{ScorerContent: score},
		})
	}
	req := Request{Count: count, Strategy: StrategyContent}
	return e.rank(scored, req, len(candidates), start), nil
}

// ForLocation ranks content for a neighborhood and season without a user
// profile, weighting location and temporal signals only.
func (e *Engine) ForLocation(ctx context.Context, neighborhood, season string, count int) (*Result, error) {
	start := e.nowFn()
	req := Request{
		Count:        e.clampCount(count),
		Strategy:     StrategyLocation,
		Neighborhood: neighborhood,
		Season:       season,
	}

	weights, err := e.cfg.strategyWeights(req.Strategy)
	if err != nil {
		return nil, err
	}

	candidates, err := e.provider.ListCandidates(ctx, CandidateFilter{Limit: e.cfg.MaxCandidates})
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	// A synthetic profile carries the requested neighborhood through the
	// location scorer; no collaborative or interest data is involved.
	user := &UserProfile{Neighborhoods: []string{neighborhood}}
	sctx := e.scoringContext(req)
	scored := e.scoreAll(ctx, user, candidates, sctx, weights)
	return e.rank(scored, req, len(candidates), start), nil
}

// Popular returns the most popular items, optionally within a category.
func (e *Engine) Popular(_ context.Context, category string, count int) (*Result, error) {
	start := e.nowFn()
	count = e.clampCount(count)
	if e.backfill == nil {
		return nil, errors.New("no popularity source configured")
	}
	items := e.backfill.TopK(count, category)
	return &Result{
		Items:           items,
		Strategy:        "popular",
		TotalCandidates: len(items),
		LatencyMS:       e.nowFn().Sub(start).Milliseconds(),
		GeneratedAt:     e.nowFn(),
	}, nil
}

// LogInteraction records a user-content interaction. The timestamp is
// filled in when the caller leaves it zero.
func (e *Engine) LogInteraction(ctx context.Context, in Interaction) error {
	if in.UserID == "" || in.ContentID == "" {
		return errors.New("interaction requires user and content identifiers")
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = e.nowFn()
	}
	if err := e.provider.LogInteraction(ctx, in); err != nil {
		return fmt.Errorf("logging interaction: %w", err)
	}
	metrics.InteractionsLogged.WithLabelValues(in.Type.String()).Inc()
	return nil
}

// Train rebuilds the trainable scorers from the full interaction log.
// Concurrent calls collapse: a call that finds training in progress
// returns immediately.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainingMu.TryLock() {
		e.logger.Debug().Msg("Training already in progress, skipping")
		return nil
	}
	defer e.trainingMu.Unlock()

	start := e.nowFn()
	interactions, err := e.provider.ListInteractions(ctx, "")
	if err != nil {
		return fmt.Errorf("loading interactions: %w", err)
	}
	items, err := e.provider.ListCandidates(ctx, CandidateFilter{})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	trained := 0
	for _, s := range e.trainables() {
		if err := s.Train(ctx, interactions, items); err != nil {
			if errors.Is(err, ErrNotTrained) {
				continue
			}
			return fmt.Errorf("training: %w", err)
		}
		trained++
	}
	elapsed := e.nowFn().Sub(start)
	metrics.TrainingDuration.Observe(elapsed.Seconds())
	e.logger.Info().
		Int("interactions", len(interactions)).
		Int("items", len(items)).
		Int("scorers_trained", trained).
		Dur("elapsed", elapsed).
		Msg("Training complete")
	return nil
}

// Run trains immediately and then retrains on the configured interval
// until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	if err := e.Train(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Initial training failed")
	}
	ticker := time.NewTicker(e.cfg.TrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Train(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("Periodic training failed")
			}
		}
	}
}

// trainables returns the scorers (and the backfill source) that need
// training, deduplicated in case one object serves both roles.
func (e *Engine) trainables() []Trainable {
	seen := make(map[Trainable]struct{})
	var out []Trainable
	for _, s := range e.scorers {
		if t, ok := s.(Trainable); ok {
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	if t, ok := e.backfill.(Trainable); ok && t != nil {
		if _, dup := seen[t]; !dup {
			out = append(out, t)
		}
	}
	return out
}

// scoreAll fans candidates out to the scorers over a bounded worker pool.
// Each candidate gets every sub-score; a scorer error zeroes that one
// sub-score and the candidate stays in the ranking.
func (e *Engine) scoreAll(ctx context.Context, user *UserProfile, candidates []ContentItem, sctx *ScoringContext, weights Weights) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := e.cfg.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scored[i] = e.scoreOne(ctx, user, &candidates[i], sctx, weights)
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	metrics.RecommendCandidatesScored.Observe(float64(len(candidates)))
	return scored
}

// scoreOne runs every scorer for one candidate and blends the result.
func (e *Engine) scoreOne(ctx context.Context, user *UserProfile, item *ContentItem, sctx *ScoringContext, weights Weights) ScoredCandidate {
	subs := make(map[string]float64, len(e.scorers))
	for _, s := range e.scorers {
		score, err := s.Score(ctx, user, item, sctx)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("scorer", s.Name()).
				Str("content_id", item.ID).
				Msg("Scorer failed, sub-score zeroed")
			metrics.ScorerErrors.WithLabelValues(s.Name()).Inc()
			score = 0
		}
		subs[s.Name()] = score
	}
	return ScoredCandidate{
		Item:   *item,
		Score:  Blend(subs, weights),
		Scores: subs,
	}
}

// rank sorts scored candidates, applies the score floor, truncates to the
// requested count, and backfills from the popularity set when the ranking
// comes up short.
func (e *Engine) rank(scored []ScoredCandidate, req Request, total int, start time.Time) *Result {
	sortCandidates(scored)

	kept := scored
	if e.cfg.MinScoreFloor > 0 {
		kept = kept[:0:len(scored)]
		for _, c := range scored {
			if c.Score >= e.cfg.MinScoreFloor {
				kept = append(kept, c)
			}
		}
	}
	if len(kept) > req.Count {
		kept = kept[:req.Count]
	}

	backfilled := 0
	if len(kept) < req.Count && e.cfg.BackfillEnabled && e.backfill != nil {
		present := make(map[string]struct{}, len(kept))
		for _, c := range kept {
			present[c.Item.ID] = struct{}{}
		}
		for _, c := range e.backfill.TopK(req.Count, "") {
			if len(kept) == req.Count {
				break
			}
			if _, dup := present[c.Item.ID]; dup {
				continue
			}
			c.Backfilled = true
			kept = append(kept, c)
			backfilled++
		}
		if backfilled > 0 {
			metrics.RecommendBackfills.Inc()
		}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyHybrid
	}
	return &Result{
		Items:           kept,
		Strategy:        string(strategy),
		TotalCandidates: total,
		Backfilled:      backfilled,
		LatencyMS:       e.nowFn().Sub(start).Milliseconds(),
		GeneratedAt:     e.nowFn(),
		RequestID:       req.RequestID,
	}
}

// sortCandidates orders by blended score descending, then recency
// descending, then identifier ascending. The full key makes rankings
// reproducible when scores tie.
func sortCandidates(scored []ScoredCandidate) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Item.CreatedAt.Equal(scored[j].Item.CreatedAt) {
			return scored[i].Item.CreatedAt.After(scored[j].Item.CreatedAt)
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
}

// normalize fills request defaults and clamps the count.
func (e *Engine) normalize(req Request) Request {
	req.Count = e.clampCount(req.Count)
	if req.Strategy == "" {
		req.Strategy = StrategyHybrid
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	return req
}

// clampCount applies the default and maximum result sizes.
func (e *Engine) clampCount(count int) int {
	if count <= 0 {
		return e.cfg.DefaultCount
	}
	if count > e.cfg.MaxCount {
		return e.cfg.MaxCount
	}
	return count
}

// scoringContext derives the per-request scoring context: a single Now
// for every candidate and the season in effect, honoring an override.
func (e *Engine) scoringContext(req Request) *ScoringContext {
	now := e.nowFn()
	season := req.Season
	if season == "" {
		season = currentSeason(now)
	}
	return &ScoringContext{Now: now, Season: season}
}
