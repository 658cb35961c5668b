// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package organic ranks products by how often they are recommended in
// unstructured text. Mentions are grouped by model code when one can be
// extracted, otherwise by normalized name.
package organic

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/selection/identity"
)

// DefaultTopN is the number of organic picks kept when none is configured.
const DefaultTopN = 2

// Counter groups and ranks mentions.
type Counter struct {
	topN   int
	logger zerolog.Logger
}

// New creates a Counter keeping the topN most mentioned products.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(topN int, logger zerolog.Logger) *Counter {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Counter{topN: topN, logger: logger.With().Str("component", "organic").Logger()}
}

type group struct {
	key     string
	order   int
	count   int
	forms   map[string]int
	formSeq []string
	sources map[string]struct{}
}

// bestForm is the most frequent surface form, first seen on ties.
func (g *group) bestForm() string {
	best, bestCount := "", 0
	for _, f := range g.formSeq {
		if g.forms[f] > bestCount {
			best, bestCount = f, g.forms[f]
		}
	}
	return best
}

func (g *group) sortedSources() []string {
	out := make([]string, 0, len(g.sources))
	for s := range g.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Key returns the grouping key of a product name: its model code, or its
// normalized name when no code is present.
func Key(name string) string {
	if code := identity.ModelCode(name); code != "" {
		return code
	}
	return identity.Key(name)
}

// Count groups mentions and returns the top products by mention count.
// Ties keep the order in which groups were first seen.
func (c *Counter) Count(keyword string, mentions []selection.Mention) selection.RecommendationResult {
	groups := make(map[string]*group)
	var ordered []*group

	for _, m := range mentions {
		key := Key(m.ProductName)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, order: len(ordered), forms: map[string]int{}, sources: map[string]struct{}{}}
			groups[key] = g
			ordered = append(ordered, g)
		}
		g.count++
		if g.forms[m.ProductName] == 0 {
			g.formSeq = append(g.formSeq, m.ProductName)
		}
		g.forms[m.ProductName]++
		for _, src := range m.SourceLocations {
			if src != "" {
				g.sources[src] = struct{}{}
			}
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].count > ordered[j].count })

	result := selection.RecommendationResult{
		Keyword:               keyword,
		TotalMentionsExamined: len(mentions),
		Top:                   []selection.ProductMention{},
	}
	for i, g := range ordered {
		if i == c.topN {
			break
		}
		result.Top = append(result.Top, selection.ProductMention{
			Name:          g.bestForm(),
			NormalizedKey: g.key,
			MentionCount:  g.count,
			Sources:       g.sortedSources(),
		})
	}

	c.logger.Debug().
		Str("keyword", keyword).
		Int("mentions", len(mentions)).
		Int("groups", len(ordered)).
		Int("top", len(result.Top)).
		Msg("Organic mentions counted")
	return result
}
