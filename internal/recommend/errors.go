// Trendspotter - Local Content Discovery and Experimentation Engine
// Copyright 2026 Trendspotter contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import "errors"

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrContentNotFound indicates the requested content item does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrNotTrained indicates a trainable scorer has no model yet.
	ErrNotTrained = errors.New("scorer not trained")

	// ErrInvalidStrategy indicates an unknown ranking strategy name.
	ErrInvalidStrategy = errors.New("invalid ranking strategy")

	// ErrProviderUnavailable indicates the data provider failed and no
	// recommendations could be generated.
	ErrProviderUnavailable = errors.New("data provider unavailable")
)
