// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"context"
	"time"
)

// InteractionType classifies user-content interactions for implicit feedback.
type InteractionType int

const (
	// InteractionView indicates the content was shown and opened.
	InteractionView InteractionType = iota
	// InteractionClick indicates the user clicked through to the content.
	InteractionClick
	// InteractionSave indicates the user saved the content.
	InteractionSave
	// InteractionShare indicates the user shared the content.
	InteractionShare
	// InteractionFeedback indicates the user left explicit feedback.
	InteractionFeedback
)

// String returns a human-readable name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionView:
		return "view"
	case InteractionClick:
		return "click"
	case InteractionSave:
		return "save"
	case InteractionShare:
		return "share"
	case InteractionFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// ParseInteractionType parses a wire-format interaction type name.
// Unknown names map to InteractionView, the weakest signal.
func ParseInteractionType(s string) InteractionType {
	switch s {
	case "click":
		return InteractionClick
	case "save":
		return InteractionSave
	case "share":
		return InteractionShare
	case "feedback":
		return InteractionFeedback
	default:
		return InteractionView
	}
}

// Confidence returns the confidence weight for this interaction type.
// Higher values indicate stronger positive signal.
func (t InteractionType) Confidence() float64 {
	switch t {
	case InteractionShare:
		return 1.0
	case InteractionSave:
		return 0.8
	case InteractionFeedback:
		return 0.6
	case InteractionClick:
		return 0.4
	case InteractionView:
		return 0.2
	default:
		return 0.0
	}
}

// Interaction represents a user-content interaction event. Interactions
// are append-only; the collaborative scorer consumes them as training input.
type Interaction struct {
	// UserID is the acting user's identifier.
	UserID string `json:"user_id"`

	// ContentID is the content item's identifier.
	ContentID string `json:"content_id"`

	// Type classifies the interaction.
	Type InteractionType `json:"type"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// ContentItem represents a locally-relevant content item: an event, a place,
// or a visual post. Items are immutable once scored within a request.
type ContentItem struct {
	// ID is the unique content identifier.
	ID string `json:"id"`

	// Title is the content title.
	Title string `json:"title"`

	// Description is a free-text description.
	Description string `json:"description,omitempty"`

	// Categories is the curated category set (e.g. "food", "outdoor").
	Categories []string `json:"categories,omitempty"`

	// Tags is the free-form tag set, including season tags.
	Tags []string `json:"tags,omitempty"`

	// Neighborhood is an optional geographic neighborhood label.
	Neighborhood string `json:"neighborhood,omitempty"`

	// EventTime is set for event-type content: when the event takes place.
	EventTime *time.Time `json:"event_time,omitempty"`

	// Venue is an optional venue label for events.
	Venue string `json:"venue,omitempty"`

	// CreatedAt is when the item entered the catalog; used as the recency
	// tie-break key in ranking.
	CreatedAt time.Time `json:"created_at"`
}

// IsEvent reports whether the item is event-type content.
func (c *ContentItem) IsEvent() bool {
	return c.EventTime != nil
}

// UserProfile represents a user as seen by the scorers. Profiles are owned
// by the external user store and read-only here.
type UserProfile struct {
	// ID is the unique user identifier.
	ID string `json:"id"`

	// Interests is the user's interest tag set.
	Interests []string `json:"interests,omitempty"`

	// Neighborhoods is the ordered list of preferred neighborhoods.
	// The first entry is the primary neighborhood.
	Neighborhoods []string `json:"neighborhoods,omitempty"`

	// InteractionCount summarizes the user's interaction history size.
	InteractionCount int `json:"interaction_count"`
}

// PrimaryNeighborhood returns the user's first-listed neighborhood,
// or "" when the user has no neighborhood preferences.
func (u *UserProfile) PrimaryNeighborhood() string {
	if len(u.Neighborhoods) == 0 {
		return ""
	}
	return u.Neighborhoods[0]
}

// ScoredCandidate is a content item with its per-scorer sub-scores and the
// blended score. Created per request, discarded after the response.
type ScoredCandidate struct {
	// Item is the content item.
	Item ContentItem `json:"item"`

	// Score is the blended score in [0, 1].
	Score float64 `json:"score"`

	// Scores is the per-scorer breakdown keyed by scorer name.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Backfilled marks candidates supplied by the popularity fallback
	// rather than the blended ranking.
	Backfilled bool `json:"backfilled,omitempty"`
}

// Request represents a recommendation request.
type Request struct {
	// UserID is the user to generate recommendations for. Empty for
	// location-only requests.
	UserID string `json:"user_id,omitempty"`

	// Count is the number of recommendations to return.
	// Defaults to Config.DefaultCount if zero; clamped to Config.MaxCount.
	Count int `json:"count,omitempty"`

	// Strategy selects the blend weight preset. Empty means StrategyHybrid.
	Strategy Strategy `json:"strategy,omitempty"`

	// Neighborhood restricts scoring context for location requests.
	Neighborhood string `json:"neighborhood,omitempty"`

	// Season overrides the season derived from the current date.
	Season string `json:"season,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Strategy names a ranking strategy: a preset of blend weights.
type Strategy string

const (
	// StrategyHybrid blends all four sub-scores with the configured weights.
	StrategyHybrid Strategy = "hybrid"
	// StrategyCollaborative ranks on the collaborative sub-score alone.
	StrategyCollaborative Strategy = "collaborative"
	// StrategyContent ranks on the content-similarity sub-score alone.
	StrategyContent Strategy = "content"
	// StrategyLocation emphasizes location and temporal sub-scores.
	StrategyLocation Strategy = "location"
)

// Valid reports whether the strategy is a known preset.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyHybrid, StrategyCollaborative, StrategyContent, StrategyLocation:
		return true
	}
	return false
}

// Result is an ordered recommendation result: candidates sorted by blended
// score descending with a stable tie-break (recency, then identifier).
type Result struct {
	// Items is the ordered list of scored candidates.
	Items []ScoredCandidate `json:"items"`

	// Strategy is the ranking strategy that produced the result.
	Strategy string `json:"strategy"`

	// TotalCandidates is the number of candidates considered.
	TotalCandidates int `json:"total_candidates"`

	// Backfilled is the number of items supplied by the fallback set.
	Backfilled int `json:"backfilled,omitempty"`

	// LatencyMS is the generation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// RequestID is the tracing identifier of the originating request.
	RequestID string `json:"request_id,omitempty"`
}

// ScoringContext carries per-request context shared by all scorer
// invocations: the evaluation time and the season in effect. A fixed
// Now makes a request's scoring deterministic end to end.
type ScoringContext struct {
	// Now is the evaluation time for temporal scoring.
	Now time.Time

	// Season is the season in effect ("spring", "summer", "fall", "winter").
	Season string
}

// Scorer is one independent signal source: a pure per-(user, item) relevance
// estimate in [0, 1]. Scorers never mutate shared state during Score and
// must return a defined score for every candidate; absence of data (cold
// start) yields a low score, not an error.
type Scorer interface {
	// Name returns the scorer identifier used as the sub-score key.
	Name() string

	// Score returns the relevance sub-score for a (user, item) pair.
	// user may be nil for anonymous/location-only requests.
	Score(ctx context.Context, user *UserProfile, item *ContentItem, sctx *ScoringContext) (float64, error)
}

// Trainable is implemented by scorers that build internal state from
// interaction history before they can produce informed scores.
type Trainable interface {
	// Train rebuilds the scorer's model from interaction data.
	Train(ctx context.Context, interactions []Interaction, items []ContentItem) error

	// IsTrained reports whether a model is available.
	IsTrained() bool
}

// DataProvider is the read-only port to the external user/content/
// interaction stores. Implementations are injected; the engine treats all
// calls as potentially remote and isolates their failures.
type DataProvider interface {
	// GetUser returns the user profile, or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*UserProfile, error)

	// GetContentByID returns one content item, or ErrContentNotFound.
	GetContentByID(ctx context.Context, id string) (*ContentItem, error)

	// ListCandidates returns candidate content items matching the filter.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]ContentItem, error)

	// ListInteractions returns interaction events; an empty userID returns
	// all interactions (training input).
	ListInteractions(ctx context.Context, userID string) ([]Interaction, error)

	// LogInteraction appends an interaction event.
	LogInteraction(ctx context.Context, interaction Interaction) error
}

// CandidateFilter restricts candidate listing.
type CandidateFilter struct {
	// Category keeps only items carrying the category. Empty matches all.
	Category string

	// Neighborhood keeps only items in the neighborhood. Empty matches all.
	Neighborhood string

	// Limit caps the number of returned items. Zero means provider default.
	Limit int
}

// currentSeason derives the season from a date using meteorological bounds:
// March-May spring, June-August summer, September-November fall, else winter.
func currentSeason(t time.Time) string {
	switch m := t.Month(); {
	case m >= time.March && m <= time.May:
		return "spring"
	case m >= time.June && m <= time.August:
		return "summer"
	case m >= time.September && m <= time.November:
		return "fall"
	default:
		return "winter"
	}
}
