// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubProvider is a canned DataProvider for engine tests.
type stubProvider struct {
	users        map[string]UserProfile
	items        []ContentItem
	interactions []Interaction
	failListing  bool
	logged       []Interaction
}

func (s *stubProvider) GetUser(_ context.Context, id string) (*UserProfile, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, id)
	}
	return &u, nil
}

func (s *stubProvider) GetContentByID(_ context.Context, id string) (*ContentItem, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrContentNotFound, id)
}

func (s *stubProvider) ListCandidates(_ context.Context, filter CandidateFilter) ([]ContentItem, error) {
	if s.failListing {
		return nil, errors.New("listing backend down")
	}
	out := s.items
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *stubProvider) ListInteractions(_ context.Context, userID string) ([]Interaction, error) {
	if userID == "" {
		return s.interactions, nil
	}
	var out []Interaction
	for _, in := range s.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *stubProvider) LogInteraction(_ context.Context, in Interaction) error {
	s.logged = append(s.logged, in)
	return nil
}

// namedScorer returns a fixed score per item ID, or an error.
type namedScorer struct {
	name   string
	scores map[string]float64
	err    error
}

func (n *namedScorer) Name() string { return n.name }

func (n *namedScorer) Score(_ context.Context, _ *UserProfile, item *ContentItem, _ *ScoringContext) (float64, error) {
	if n.err != nil {
		return 0, n.err
	}
	return n.scores[item.ID], nil
}

// stubBackfill serves a fixed popularity ranking.
type stubBackfill struct {
	items []ScoredCandidate
}

func (s *stubBackfill) TopK(n int, _ string) []ScoredCandidate {
	if n > len(s.items) {
		n = len(s.items)
	}
	return s.items[:n]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.DefaultCount = 3
	cfg.MaxCount = 5
	return cfg
}

func items(ids ...string) []ContentItem {
	out := make([]ContentItem, 0, len(ids))
	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		out = append(out, ContentItem{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	return out
}

func newTestEngine(t *testing.T, cfg Config, p DataProvider, sc []Scorer, bf Backfiller) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, p, sc, bf)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = Weights{Collaborative: 0.5, Content: 0.3, Location: 0.3, Temporal: 0.1}

	provider := &stubProvider{users: map[string]UserProfile{}}
	_, err := NewEngine(cfg, provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)
	if err == nil {
		t.Fatal("NewEngine() accepted weights summing to 1.2")
	}
}

func TestRecommendOrdersByBlendedScore(t *testing.T) {
	provider := &stubProvider{
		users: map[string]UserProfile{"u1": {ID: "u1"}},
		items: items("a", "b", "c"),
	}
	// With hybrid weights 0.35/0.30/0.25/0.10: b outranks a on the
	// collaborative signal, c trails on everything.
	sc := []Scorer{
		&namedScorer{name: ScorerCollaborative, scores: map[string]float64{"a": 0.4, "b": 0.9, "c": 0.1}},
		&namedScorer{name: ScorerContent, scores: map[string]float64{"a": 0.5, "b": 0.5, "c": 0.1}},
		&namedScorer{name: ScorerLocation, scores: map[string]float64{"a": 0.5, "b": 0.5, "c": 0.1}},
		&namedScorer{name: ScorerTemporal, scores: map[string]float64{"a": 0.5, "b": 0.5, "c": 0.1}},
	}
	e := newTestEngine(t, testConfig(), provider, sc, nil)

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Count: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(res.Items))
	}
	if res.Items[0].Item.ID != "b" || res.Items[1].Item.ID != "a" || res.Items[2].Item.ID != "c" {
		t.Errorf("order = %s, %s, %s, want b, a, c",
			res.Items[0].Item.ID, res.Items[1].Item.ID, res.Items[2].Item.ID)
	}
	if res.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3", res.TotalCandidates)
	}
	for _, c := range res.Items {
		if len(c.Scores) != 4 {
			t.Errorf("item %s has %d sub-scores, want 4", c.Item.ID, len(c.Scores))
		}
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	provider := &stubProvider{users: map[string]UserProfile{}, items: items("a")}
	e := newTestEngine(t, testConfig(), provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)

	_, err := e.Recommend(context.Background(), Request{UserID: "ghost"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Recommend() error = %v, want ErrUserNotFound", err)
	}
}

func TestRecommendScorerFailureZeroesSubScore(t *testing.T) {
	provider := &stubProvider{
		users: map[string]UserProfile{"u1": {ID: "u1"}},
		items: items("a"),
	}
	sc := []Scorer{
		&namedScorer{name: ScorerCollaborative, err: errors.New("model exploded")},
		&namedScorer{name: ScorerContent, scores: map[string]float64{"a": 1.0}},
	}
	cfg := testConfig()
	cfg.MinScoreFloor = 0
	e := newTestEngine(t, cfg, provider, sc, nil)

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Count: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
	got := res.Items[0]
	if got.Scores[ScorerCollaborative] != 0 {
		t.Errorf("failed scorer sub-score = %f, want 0", got.Scores[ScorerCollaborative])
	}
	// Only the content weight contributes.
	want := 0.30 * 1.0
	if diff := got.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("blended score = %f, want %f", got.Score, want)
	}
}

func TestRecommendBackfillsThinResults(t *testing.T) {
	provider := &stubProvider{
		users: map[string]UserProfile{"u1": {ID: "u1"}},
		items: items("a", "b"),
	}
	// Everything scores below the floor, so the whole result is backfill.
	sc := []Scorer{
		&namedScorer{name: ScorerContent, scores: map[string]float64{"a": 0.01, "b": 0.01}},
	}
	bf := &stubBackfill{items: []ScoredCandidate{
		{Item: ContentItem{ID: "pop1"}, Score: 0.9},
		{Item: ContentItem{ID: "pop2"}, Score: 0.8},
		{Item: ContentItem{ID: "pop3"}, Score: 0.7},
	}}
	e := newTestEngine(t, testConfig(), provider, sc, bf)

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Count: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(res.Items))
	}
	if res.Backfilled != 3 {
		t.Errorf("Backfilled = %d, want 3", res.Backfilled)
	}
	for _, c := range res.Items {
		if !c.Backfilled {
			t.Errorf("item %s not marked as backfilled", c.Item.ID)
		}
	}
}

func TestRecommendBackfillSkipsDuplicates(t *testing.T) {
	provider := &stubProvider{
		users: map[string]UserProfile{"u1": {ID: "u1"}},
		items: items("a"),
	}
	sc := []Scorer{
		&namedScorer{name: ScorerContent, scores: map[string]float64{"a": 1.0}},
	}
	bf := &stubBackfill{items: []ScoredCandidate{
		{Item: ContentItem{ID: "a"}, Score: 0.9},
		{Item: ContentItem{ID: "pop"}, Score: 0.8},
	}}
	e := newTestEngine(t, testConfig(), provider, sc, bf)

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Count: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
	if res.Items[0].Item.ID != "a" || res.Items[1].Item.ID != "pop" {
		t.Errorf("order = %s, %s, want a, pop", res.Items[0].Item.ID, res.Items[1].Item.ID)
	}
	if res.Items[0].Backfilled {
		t.Error("ranked item wrongly marked as backfilled")
	}
}

func TestRecommendProviderFailure(t *testing.T) {
	provider := &stubProvider{
		users:       map[string]UserProfile{"u1": {ID: "u1"}},
		failListing: true,
	}
	e := newTestEngine(t, testConfig(), provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)

	if _, err := e.Recommend(context.Background(), Request{UserID: "u1"}); err == nil {
		t.Fatal("Recommend() succeeded with a failing provider")
	}
}

func TestRecommendCountClamping(t *testing.T) {
	ids := make([]string, 10)
	scores := make(map[string]float64, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
		scores[ids[i]] = 0.5
	}
	provider := &stubProvider{
		users: map[string]UserProfile{"u1": {ID: "u1"}},
		items: items(ids...),
	}
	sc := []Scorer{&namedScorer{name: ScorerContent, scores: scores}}
	e := newTestEngine(t, testConfig(), provider, sc, nil)

	tests := []struct {
		name  string
		count int
		want  int
	}{
		{name: "zero count uses default", count: 0, want: 3},
		{name: "negative count uses default", count: -2, want: 3},
		{name: "oversized count clamps to max", count: 100, want: 5},
		{name: "explicit count honored", count: 4, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Recommend(context.Background(), Request{UserID: "u1", Count: tt.count})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(res.Items) != tt.want {
				t.Errorf("got %d items, want %d", len(res.Items), tt.want)
			}
		})
	}
}

func TestRecommendInvalidStrategy(t *testing.T) {
	provider := &stubProvider{users: map[string]UserProfile{"u1": {ID: "u1"}}}
	e := newTestEngine(t, testConfig(), provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)

	_, err := e.Recommend(context.Background(), Request{UserID: "u1", Strategy: "psychic"})
	if !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("Recommend() error = %v, want ErrInvalidStrategy", err)
	}
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	older := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	scored := []ScoredCandidate{
		{Item: ContentItem{ID: "b", CreatedAt: older}, Score: 0.5},
		{Item: ContentItem{ID: "a", CreatedAt: older}, Score: 0.5},
		{Item: ContentItem{ID: "c", CreatedAt: newer}, Score: 0.5},
		{Item: ContentItem{ID: "d", CreatedAt: older}, Score: 0.9},
	}
	sortCandidates(scored)

	want := []string{"d", "c", "a", "b"}
	for i, id := range want {
		if scored[i].Item.ID != id {
			t.Errorf("position %d = %s, want %s", i, scored[i].Item.ID, id)
		}
	}
}

func TestSimilarExcludesSource(t *testing.T) {
	provider := &stubProvider{
		items: []ContentItem{
			{ID: "src", Tags: []string{"market", "food"}},
			{ID: "close", Tags: []string{"market", "food"}},
			{ID: "far", Tags: []string{"opera"}},
		},
	}
	sc := []Scorer{&similarityScorer{}}
	e := newTestEngine(t, testConfig(), provider, sc, nil)

	res, err := e.Similar(context.Background(), "src", 5)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	for _, c := range res.Items {
		if c.Item.ID == "src" {
			t.Error("source item appeared in its own similarity results")
		}
	}
	if len(res.Items) == 0 || res.Items[0].Item.ID != "close" {
		t.Errorf("expected close match first, got %+v", res.Items)
	}

	if _, err := e.Similar(context.Background(), "missing", 5); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("Similar(missing) error = %v, want ErrContentNotFound", err)
	}
}

// similarityScorer implements both Scorer and ItemSimilarity via tag overlap.
type similarityScorer struct{}

func (s *similarityScorer) Name() string { return ScorerContent }

func (s *similarityScorer) Score(_ context.Context, _ *UserProfile, _ *ContentItem, _ *ScoringContext) (float64, error) {
	return 0, nil
}

func (s *similarityScorer) Similar(a, b *ContentItem) float64 {
	set := make(map[string]struct{}, len(a.Tags))
	for _, tag := range a.Tags {
		set[tag] = struct{}{}
	}
	match := 0
	for _, tag := range b.Tags {
		if _, ok := set[tag]; ok {
			match++
		}
	}
	if len(a.Tags) == 0 {
		return 0
	}
	return float64(match) / float64(len(a.Tags))
}

func TestForLocationRanksNeighborhoodFirst(t *testing.T) {
	provider := &stubProvider{
		items: []ContentItem{
			{ID: "local", Neighborhood: "Kensington Market"},
			{ID: "elsewhere", Neighborhood: "Yorkville"},
		},
	}
	// Real location scoring: full score for the synthetic profile's
	// primary neighborhood, nothing otherwise.
	sc := []Scorer{&locationish{}}
	cfg := testConfig()
	e := newTestEngine(t, cfg, provider, sc, nil)

	res, err := e.ForLocation(context.Background(), "Kensington Market", "summer", 2)
	if err != nil {
		t.Fatalf("ForLocation() error = %v", err)
	}
	if len(res.Items) == 0 || res.Items[0].Item.ID != "local" {
		t.Errorf("expected local item first, got %+v", res.Items)
	}
}

// locationish scores 1 when the item matches the profile's first
// neighborhood, mirroring the production location scorer's contract.
type locationish struct{}

func (l *locationish) Name() string { return ScorerLocation }

func (l *locationish) Score(_ context.Context, user *UserProfile, item *ContentItem, _ *ScoringContext) (float64, error) {
	if user != nil && len(user.Neighborhoods) > 0 && user.Neighborhoods[0] == item.Neighborhood {
		return 1, nil
	}
	return 0, nil
}

func TestLogInteraction(t *testing.T) {
	provider := &stubProvider{}
	e := newTestEngine(t, testConfig(), provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)

	err := e.LogInteraction(context.Background(), Interaction{UserID: "u1", ContentID: "c1", Type: InteractionSave})
	if err != nil {
		t.Fatalf("LogInteraction() error = %v", err)
	}
	if len(provider.logged) != 1 {
		t.Fatalf("logged %d interactions, want 1", len(provider.logged))
	}
	if provider.logged[0].Timestamp.IsZero() {
		t.Error("timestamp not filled in")
	}

	if err := e.LogInteraction(context.Background(), Interaction{UserID: "", ContentID: "c1"}); err == nil {
		t.Error("LogInteraction() accepted an empty user ID")
	}
}

func TestTrainSkipsWhenInProgress(t *testing.T) {
	provider := &stubProvider{items: items("a")}
	e := newTestEngine(t, testConfig(), provider, []Scorer{&namedScorer{name: ScorerContent}}, nil)

	e.trainingMu.Lock()
	done := make(chan error, 1)
	go func() { done <- e.Train(context.Background()) }()
	if err := <-done; err != nil {
		t.Errorf("concurrent Train() = %v, want nil skip", err)
	}
	e.trainingMu.Unlock()
}
