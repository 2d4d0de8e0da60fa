// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/trendspotter/trendspotter/internal/logging"
	"github.com/trendspotter/trendspotter/internal/metrics"
	"github.com/trendspotter/trendspotter/internal/recommend"
)

// breakerStates maps gobreaker states to gauge values for monitoring.
var breakerStates = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

// Breaker decorates a DataProvider with a circuit breaker. When the
// underlying provider trips the breaker, calls fail fast with
// recommend.ErrProviderUnavailable until the cool-down passes.
type Breaker struct {
	inner recommend.DataProvider
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreaker wraps a provider. failureThreshold consecutive failures open
// the breaker; timeout is the open-state cool-down.
func NewBreaker(inner recommend.DataProvider, failureThreshold uint32, timeout time.Duration) *Breaker {
	logger := logging.With().Str("component", "provider_breaker").Logger()
	settings := gobreaker.Settings{
		Name:    "data_provider",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		// Not-found lookups are valid answers, not provider failures.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, recommend.ErrUserNotFound) ||
				errors.Is(err, recommend.ErrContentNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ProviderBreakerState.Set(breakerStates[to])
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state changed")
		},
	}
	return &Breaker{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// execute runs fn through the breaker, mapping the open-state error to
// the provider-unavailable sentinel callers test for.
func (b *Breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", recommend.ErrProviderUnavailable, err)
	}
	return out, err
}

// GetUser implements recommend.DataProvider.
func (b *Breaker) GetUser(ctx context.Context, id string) (*recommend.UserProfile, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.GetUser(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*recommend.UserProfile), nil
}

// GetContentByID implements recommend.DataProvider.
func (b *Breaker) GetContentByID(ctx context.Context, id string) (*recommend.ContentItem, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.GetContentByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*recommend.ContentItem), nil
}

// ListCandidates implements recommend.DataProvider.
func (b *Breaker) ListCandidates(ctx context.Context, filter recommend.CandidateFilter) ([]recommend.ContentItem, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.ListCandidates(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return out.([]recommend.ContentItem), nil
}

// ListInteractions implements recommend.DataProvider.
func (b *Breaker) ListInteractions(ctx context.Context, userID string) ([]recommend.Interaction, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.ListInteractions(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]recommend.Interaction), nil
}

// LogInteraction implements recommend.DataProvider.
func (b *Breaker) LogInteraction(ctx context.Context, in recommend.Interaction) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.LogInteraction(ctx, in)
	})
	return err
}
