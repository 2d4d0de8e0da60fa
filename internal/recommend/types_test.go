// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"testing"
	"time"
)

func TestCurrentSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "winter"},
		{time.February, "winter"},
		{time.March, "spring"},
		{time.May, "spring"},
		{time.June, "summer"},
		{time.August, "summer"},
		{time.September, "fall"},
		{time.November, "fall"},
		{time.December, "winter"},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			date := time.Date(2026, tt.month, 15, 0, 0, 0, 0, time.UTC)
			if got := currentSeason(date); got != tt.want {
				t.Errorf("currentSeason(%s) = %q, want %q", tt.month, got, tt.want)
			}
		})
	}
}

func TestInteractionConfidenceOrdering(t *testing.T) {
	// Stronger engagement must never carry less weight than weaker.
	order := []InteractionType{
		InteractionView,
		InteractionClick,
		InteractionFeedback,
		InteractionSave,
		InteractionShare,
	}
	for i := 1; i < len(order); i++ {
		weaker, stronger := order[i-1], order[i]
		if weaker.Confidence() >= stronger.Confidence() {
			t.Errorf("%s confidence %f should be below %s confidence %f",
				weaker, weaker.Confidence(), stronger, stronger.Confidence())
		}
	}
	if InteractionShare.Confidence() != 1.0 {
		t.Errorf("share confidence = %f, want 1.0", InteractionShare.Confidence())
	}
}

func TestParseInteractionType(t *testing.T) {
	tests := []struct {
		in   string
		want InteractionType
	}{
		{"view", InteractionView},
		{"click", InteractionClick},
		{"save", InteractionSave},
		{"share", InteractionShare},
		{"feedback", InteractionFeedback},
		{"garbage", InteractionView},
		{"", InteractionView},
	}
	for _, tt := range tests {
		if got := ParseInteractionType(tt.in); got != tt.want {
			t.Errorf("ParseInteractionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, typ := range []InteractionType{InteractionView, InteractionClick, InteractionSave, InteractionShare, InteractionFeedback} {
		if ParseInteractionType(typ.String()) != typ {
			t.Errorf("round trip failed for %s", typ)
		}
	}
}

func TestStrategyValid(t *testing.T) {
	for _, s := range []Strategy{StrategyHybrid, StrategyCollaborative, StrategyContent, StrategyLocation} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Strategy("psychic").Valid() {
		t.Error("unknown strategy reported valid")
	}
}
