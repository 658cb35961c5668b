// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package slots

import (
	"errors"
	"testing"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/selection"
)

func scored(name, manufacturer string, total float64) selection.Scored {
	return selection.Scored{
		Candidate: &selection.Candidate{Name: name, Manufacturer: manufacturer, PresenceScore: 2, AvgRank: 1.5},
		Scores:    selection.DimensionScores{Strategy: selection.StrategyCommercialValue, Total: total},
	}
}

func names(slots []selection.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newSelector(mutate func(*selection.Policy)) *Selector {
	p := selection.DefaultPolicy("robot-vacuum")
	if mutate != nil {
		mutate(&p)
	}
	return New(p, logging.NewNopLogger())
}

func TestSelect_DiverseTop3(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{
		scored("Samsung Jet AI", "Samsung", 0.9),
		scored("Samsung Jet Bot", "Samsung", 0.8),
		scored("LG CordZero R5", "LG", 0.7),
		scored("Roborock Q Revo S", "Roborock", 0.6),
	}

	slots, err := newSelector(nil).Select(pool)
	if err != nil {
		t.Fatalf("Select() = %v", err)
	}

	want := []string{"Samsung Jet AI", "LG CordZero R5", "Roborock Q Revo S"}
	if got := names(slots); !equal(got, want) {
		t.Errorf("Select() = %v, want %v", got, want)
	}
	for i, s := range slots {
		if s.Rank != i+1 {
			t.Errorf("slot %d rank = %d", i, s.Rank)
		}
		if s.Relaxed {
			t.Errorf("slot %d unexpectedly relaxed", i)
		}
	}
	if slots[0].Label != "value" || slots[2].Label != "premium" {
		t.Errorf("labels = %q, %q", slots[0].Label, slots[2].Label)
	}
	if slots[0].Reasons[1] != "Presence on 2 platforms" {
		t.Errorf("reasons = %v", slots[0].Reasons)
	}
}

func TestSelect_DiversityRelaxation(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{
		scored("Samsung A", "Samsung", 0.9),
		scored("Samsung B", "Samsung", 0.8),
		scored("LG A", "LG", 0.7),
		scored("LG B", "LG", 0.1),
	}

	slots, err := newSelector(nil).Select(pool)
	if err != nil {
		t.Fatalf("Select() must not fail on relaxation: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	want := []string{"Samsung A", "Samsung B", "LG A"}
	if got := names(slots); !equal(got, want) {
		t.Errorf("Select() = %v, want %v", got, want)
	}

	relaxedCount := 0
	seen := map[string]bool{}
	for _, s := range slots {
		if s.Relaxed {
			relaxedCount++
			if s.Reasons[len(s.Reasons)-1] != ReasonDiversityRelaxed {
				t.Errorf("relaxed slot reasons = %v", s.Reasons)
			}
		}
		if seen[s.Manufacturer] && !s.Relaxed {
			t.Errorf("repeated manufacturer %s without relaxation reason", s.Manufacturer)
		}
		seen[s.Manufacturer] = true
	}
	if relaxedCount != 1 {
		t.Errorf("expected exactly 1 relaxed slot, got %d", relaxedCount)
	}
	if !slots[1].Relaxed {
		t.Error("expected the second Samsung pick to be relaxed")
	}
}

func TestSelect_ExactPoolNoRelaxation(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{
		scored("A", "Samsung", 0.3),
		scored("B", "LG", 0.5),
		scored("C", "Dreame", 0.4),
	}

	slots, err := newSelector(nil).Select(pool)
	if err != nil {
		t.Fatalf("Select() = %v", err)
	}
	if got := names(slots); !equal(got, []string{"B", "C", "A"}) {
		t.Errorf("Select() = %v", got)
	}
	for _, s := range slots {
		if s.Relaxed {
			t.Errorf("unexpected relaxation for %s", s.Name)
		}
	}
}

func TestSelect_InsufficientCandidates(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{scored("A", "Samsung", 0.3), scored("B", "LG", 0.5)}

	_, err := newSelector(nil).Select(pool)
	if !errors.Is(err, selection.ErrInsufficientCandidates) {
		t.Fatalf("expected ErrInsufficientCandidates, got %v", err)
	}
	var ice *selection.InsufficientCandidatesError
	if !errors.As(err, &ice) || ice.Pool != 2 || ice.Target != 3 {
		t.Errorf("error detail = %+v", ice)
	}
}

func TestSelect_DiversityDisabled(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{
		scored("Samsung A", "Samsung", 0.9),
		scored("Samsung B", "Samsung", 0.8),
		scored("LG A", "LG", 0.7),
	}

	slots, err := newSelector(func(p *selection.Policy) {
		p.Diversity = false
		p.TargetCount = 2
	}).Select(pool)
	if err != nil {
		t.Fatalf("Select() = %v", err)
	}
	if got := names(slots); !equal(got, []string{"Samsung A", "Samsung B"}) {
		t.Errorf("Select() = %v", got)
	}
	if slots[1].Relaxed {
		t.Error("no relaxation when diversity is disabled")
	}
}

func TestRank_StableOnTies(t *testing.T) {
	t.Parallel()

	pool := []selection.Scored{scored("first", "A", 0.5), scored("second", "B", 0.5), scored("top", "C", 0.9)}
	got := Rank(pool)
	if got[0].Candidate.Name != "top" || got[1].Candidate.Name != "first" || got[2].Candidate.Name != "second" {
		t.Errorf("Rank() order = %s, %s, %s", got[0].Candidate.Name, got[1].Candidate.Name, got[2].Candidate.Name)
	}
	if pool[0].Candidate.Name != "first" {
		t.Error("Rank() must not reorder its input")
	}
}
