// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scorers provides the individual signal scorers blended by the
// recommendation engine: collaborative filtering, content similarity,
// location affinity, temporal relevance, and the popularity fallback.
package scorers

import (
	"strings"
	"sync"
)

// BaseScorer provides the shared mutex discipline for trainable scorers:
// trainMu serializes Train, stateMu guards model reads against swaps.
type BaseScorer struct {
	trainMu sync.Mutex
	stateMu sync.RWMutex
	trained bool
}

// IsTrained reports whether a model is available.
func (b *BaseScorer) IsTrained() bool {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.trained
}

// setTrained marks the scorer as trained under the state lock.
// Callers must not hold stateMu.
func (b *BaseScorer) setTrained(v bool) {
	b.stateMu.Lock()
	b.trained = v
	b.stateMu.Unlock()
}

// clamp01 clips a score into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// jaccard computes the Jaccard similarity of two string sets,
// case-insensitive. Two empty sets have similarity 0.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[strings.ToLower(s)] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[strings.ToLower(s)] = struct{}{}
	}
	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// tokenize splits free text into lowercase word tokens, dropping short
// tokens that carry no signal.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// containsFold reports whether list contains s, case-insensitive.
func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
