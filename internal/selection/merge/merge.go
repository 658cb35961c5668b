// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package merge reconciles the commercial selection with the organic
// recommendations into the published top three.
//
// With A1..A3 the validated selection and V1, V2 the organic picks, overlap
// is checked between each V and {A1, A2} only:
//
//	no V                               -> [A1, A2, A3]   default
//	V1 matches neither A1 nor A2       -> [A1, A2, V1]   default
//	V1 matches, V2 matches neither     -> [A1, A2, V2]   overlap_1
//	otherwise                          -> [A1, A3, A2]   overlap_2
//
// In overlap_2 A2 is demoted to the organic slot and tagged "both".
package merge

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/selection/identity"
)

// OrganicLabel is the slot label given to a purely organic pick.
const OrganicLabel = "value"

// Merger applies the merge decision table. It is safe for concurrent use.
type Merger struct {
	matcher *identity.Matcher
	logger  zerolog.Logger
}

// New creates a Merger. Fuzzy matching is never enabled for merging;
// opts may set category suffixes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(logger zerolog.Logger, opts ...identity.Option) *Merger {
	return &Merger{
		matcher: identity.NewMatcher(opts...),
		logger:  logger.With().Str("component", "merge").Logger(),
	}
}

type overlap struct {
	organic int // index into the organic picks
	slot    int // index into the selection
	method  identity.Method
}

// Merge builds the final selection. Date and category come from a.
func (m *Merger) Merge(a *selection.SelectionResult, b *selection.RecommendationResult) selection.FinalSelectionResult {
	picks := a.Selected
	var organic []selection.ProductMention
	if b != nil {
		organic = b.Top
	}
	if len(picks) < 3 {
		m.logger.Warn().Str("category", a.Category).Int("picks", len(picks)).Msg("Selection has fewer than 3 picks")
	}

	out := selection.FinalSelectionResult{
		Category:      a.Category,
		SelectionDate: a.SelectionDate,
		Final:         []selection.FinalPick{},
		MatchDetails:  []selection.MatchDetail{},
	}

	if len(organic) == 0 {
		out.MergeCase = selection.MergeDefault
		out.Final = m.selectionPicks(head(picks, 3), organic)
		out.MatchDetails = append(out.MatchDetails, selection.MatchDetail{Note: "No organic recommendations available"})
		m.log(&out)
		return out
	}

	overlaps := m.findOverlaps(head(picks, 2), organic)
	for _, o := range overlaps {
		out.MatchDetails = append(out.MatchDetails, selection.MatchDetail{
			OrganicRank:    o.organic + 1,
			OrganicProduct: organic[o.organic].Name,
			SelectRank:     picks[o.slot].Rank,
			SelectProduct:  picks[o.slot].Name,
			MatchMethod:    string(o.method),
		})
	}
	v1 := findOverlap(overlaps, 0)
	v2 := findOverlap(overlaps, 1)

	switch {
	case v1 == nil:
		out.MergeCase = selection.MergeDefault
		out.Final = m.selectionPicks(head(picks, 2), organic)
		out.Final = append(out.Final, organicPick(len(out.Final)+1, 1, organic[0]))

	case len(organic) > 1 && v2 == nil:
		out.MergeCase = selection.MergeOverlap1
		out.Final = m.selectionPicks(head(picks, 2), organic)
		out.Final = append(out.Final, organicPick(len(out.Final)+1, 2, organic[1]))
		out.MatchDetails = append(out.MatchDetails, selection.MatchDetail{
			Note: fmt.Sprintf("Selection #%d also matches organic recommendation #1", picks[v1.slot].Rank),
		})

	default:
		out.MergeCase = selection.MergeOverlap2
		kept := head(picks, 1)
		if len(picks) >= 3 {
			kept = []selection.Slot{picks[0], picks[2]}
		}
		out.Final = m.selectionPicks(kept, organic)
		if len(picks) >= 2 {
			mention, method := demotedMention(overlaps, organic)
			out.Final = append(out.Final, demotedPick(len(out.Final)+1, &picks[1], mention, method))
			out.MatchDetails = append(out.MatchDetails, selection.MatchDetail{
				Note: "Both organic recommendations match the selection top 2; A3 promoted, A2 moved to the organic slot",
			})
		}
	}

	m.log(&out)
	return out
}

func (m *Merger) log(out *selection.FinalSelectionResult) {
	m.logger.Info().
		Str("category", out.Category).
		Str("merge_case", string(out.MergeCase)).
		Int("final", len(out.Final)).
		Msg("Selection merged")
}

// findOverlaps records, per organic pick, the first matching selection slot.
func (m *Merger) findOverlaps(top []selection.Slot, organic []selection.ProductMention) []overlap {
	var found []overlap
	for vi := range organic {
		for ai := range top {
			if ok, method := m.match(&top[ai], &organic[vi]); ok {
				found = append(found, overlap{organic: vi, slot: ai, method: method})
				break
			}
		}
	}
	return found
}

func (m *Merger) match(s *selection.Slot, v *selection.ProductMention) (bool, identity.Method) {
	return m.matcher.MatchKeyed(s.Name, v.Name, v.NormalizedKey)
}

// selectionPicks converts slots to final picks ranked from 1, tagging any
// slot that matches an organic pick as "both".
func (m *Merger) selectionPicks(slots []selection.Slot, organic []selection.ProductMention) []selection.FinalPick {
	out := make([]selection.FinalPick, 0, len(slots)+1)
	for i := range slots {
		s := &slots[i]
		scores := s.Scores
		pick := selection.FinalPick{
			Rank:       i + 1,
			Name:       s.Name,
			Brand:      s.Brand,
			Price:      s.Price,
			Source:     selection.FromSelection,
			Reasons:    append([]string(nil), s.Reasons...),
			Label:      s.Label,
			SelectRank: s.Rank,
			Scores:     &scores,
		}
		for vi := range organic {
			if ok, method := m.match(s, &organic[vi]); ok {
				pick.Source = selection.FromBoth
				pick.MatchMethod = string(method)
				pick.MentionCount = organic[vi].MentionCount
				pick.NormalizedKey = organic[vi].NormalizedKey
				pick.Reasons = append(pick.Reasons,
					fmt.Sprintf("Also organic recommendation (mentioned %d times)", organic[vi].MentionCount))
				break
			}
		}
		out = append(out, pick)
	}
	return out
}

func organicPick(rank, organicRank int, v selection.ProductMention) selection.FinalPick {
	return selection.FinalPick{
		Rank:   rank,
		Name:   v.Name,
		Source: selection.FromOrganic,
		Reasons: []string{
			fmt.Sprintf("Organic recommendation #%d (mentioned %d times)", organicRank, v.MentionCount),
			fmt.Sprintf("Assigned to %s slot", OrganicLabel),
		},
		Label:         OrganicLabel,
		MentionCount:  v.MentionCount,
		NormalizedKey: v.NormalizedKey,
	}
}

func demotedPick(rank int, s *selection.Slot, v *selection.ProductMention, method identity.Method) selection.FinalPick {
	scores := s.Scores
	return selection.FinalPick{
		Rank:   rank,
		Name:   s.Name,
		Brand:  s.Brand,
		Price:  s.Price,
		Source: selection.FromBoth,
		Reasons: []string{
			fmt.Sprintf("Organic recommendation (mentioned %d times)", v.MentionCount),
			fmt.Sprintf("Selection rank #%d (score %.3f)", s.Rank, s.Scores.Total),
		},
		MatchMethod:   string(method),
		Label:         s.Label,
		SelectRank:    s.Rank,
		Scores:        &scores,
		MentionCount:  v.MentionCount,
		NormalizedKey: v.NormalizedKey,
	}
}

// demotedMention picks the organic pick that matched A2, falling back to V1
// with no match method.
func demotedMention(overlaps []overlap, organic []selection.ProductMention) (*selection.ProductMention, identity.Method) {
	for _, o := range overlaps {
		if o.slot == 1 {
			return &organic[o.organic], o.method
		}
	}
	return &organic[0], ""
}

func findOverlap(overlaps []overlap, organicIdx int) *overlap {
	for i := range overlaps {
		if overlaps[i].organic == organicIdx {
			return &overlaps[i]
		}
	}
	return nil
}

func head(slots []selection.Slot, n int) []selection.Slot {
	if len(slots) < n {
		return slots
	}
	return slots[:n]
}
