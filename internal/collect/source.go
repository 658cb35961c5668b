// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package collect gathers one complete input batch from independent
// sources. Sources run concurrently, each behind its own circuit breaker;
// a failing source becomes a batch warning rather than an engine error.
package collect

import (
	"context"

	"github.com/tomtom215/shortlist/internal/selection"
)

// Query identifies what to fetch.
type Query struct {
	Category string
	Keyword  string
}

// Source is the part every capability shares.
type Source interface {
	// Name identifies the source in warnings, metrics and breaker state.
	Name() string
}

// ObservationSource fetches one platform's ranking list.
type ObservationSource interface {
	Source
	FetchObservations(ctx context.Context, q Query) ([]selection.Observation, error)
}

// MentionSource fetches product mentions already extracted from text.
type MentionSource interface {
	Source
	FetchMentions(ctx context.Context, q Query) ([]selection.Mention, error)
}

// SignalSource fetches per-product signals keyed by product name.
type SignalSource interface {
	Source
	FetchSignals(ctx context.Context, q Query) (map[string]selection.Signals, error)
}
