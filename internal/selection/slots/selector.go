// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package slots picks the Top-N candidates by score under a manufacturer
// diversity constraint.
//
// The first pass walks candidates by descending total and admits only
// unused manufacturers. When that leaves slots empty, a second pass over the
// full ordering fills them regardless of manufacturer and marks each such
// pick with ReasonDiversityRelaxed. Ranks are dense 1..N in score order.
package slots

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
)

// ReasonDiversityRelaxed annotates picks admitted despite a manufacturer collision.
const ReasonDiversityRelaxed = "diversity relaxed"

// Selector chooses slots from scored candidates.
type Selector struct {
	policy selection.Policy
	logger zerolog.Logger
}

// New creates a Selector for the given policy.
//
//nolint:gocritic // Policy and zerolog.Logger are passed by value
func New(policy selection.Policy, logger zerolog.Logger) *Selector {
	return &Selector{
		policy: policy.Clone(),
		logger: logger.With().Str("component", "slots").Logger(),
	}
}

// Select returns policy.TargetCount slots. It fails with
// *selection.InsufficientCandidatesError when the pool is smaller than that.
func (s *Selector) Select(scored []selection.Scored) ([]selection.Slot, error) {
	target := s.policy.TargetCount
	if len(scored) < target {
		return nil, &selection.InsufficientCandidatesError{
			Category: s.policy.Category,
			Pool:     len(scored),
			Target:   target,
		}
	}

	ordered := Rank(scored)

	taken := make([]bool, len(ordered))
	relaxed := make([]bool, len(ordered))
	used := make(map[string]bool, target)
	count := 0

	for i, sc := range ordered {
		if count == target {
			break
		}
		m := sc.Candidate.Manufacturer
		if s.policy.Diversity && used[m] {
			continue
		}
		taken[i] = true
		used[m] = true
		count++
	}

	for i, sc := range ordered {
		if count == target {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		relaxed[i] = true
		count++
		s.logger.Info().
			Str("candidate", sc.Candidate.Name).
			Str("manufacturer", sc.Candidate.Manufacturer).
			Msg("Manufacturer diversity relaxed to fill slot")
	}

	slots := make([]selection.Slot, 0, target)
	for i, sc := range ordered {
		if !taken[i] {
			continue
		}
		rank := len(slots) + 1
		slot := selection.NewSlot(rank, s.policy.SlotLabel(rank), sc, reasons(sc))
		if relaxed[i] {
			slot.Relaxed = true
			slot.Reasons = append(slot.Reasons, ReasonDiversityRelaxed)
		}
		slots = append(slots, slot)
	}

	s.logger.Debug().Int("pool", len(scored)).Int("selected", len(slots)).Msg("Slots selected")
	return slots, nil
}

// Rank orders scored candidates by total descending. Ties keep pool order,
// which the aggregator sorted by average rank.
func Rank(scored []selection.Scored) []selection.Scored {
	ordered := make([]selection.Scored, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Scores.Total > ordered[j].Scores.Total
	})
	return ordered
}

func reasons(sc selection.Scored) []string {
	c := sc.Candidate
	return []string{
		fmt.Sprintf("Score %.3f (%s)", sc.Scores.Total, sc.Scores.Strategy),
		fmt.Sprintf("Presence on %d platforms", c.PresenceScore),
		fmt.Sprintf("Average rank %.1f", c.AvgRank),
	}
}
