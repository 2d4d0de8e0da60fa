// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

// Blend combines per-scorer sub-scores into a single score using a fixed
// linear combination. Missing sub-scores contribute zero. The result is
// clipped to [0, 1] so downstream ranking can rely on the range.
func Blend(scores map[string]float64, w Weights) float64 {
	blended := 0.0
	for name, weight := range w.Map() {
		if weight == 0 {
			continue
		}
		blended += weight * scores[name]
	}
	if blended < 0 {
		return 0
	}
	if blended > 1 {
		return 1
	}
	return blended
}
