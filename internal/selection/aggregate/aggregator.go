// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package aggregate merges per-platform ranking observations into a
// deduplicated candidate pool.
package aggregate

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/selection/identity"
)

// Stats describes one aggregation pass.
type Stats struct {
	Observations int      `json:"observations"`
	Platforms    []string `json:"platforms"`
	Groups       int      `json:"groups"`
	Dropped      int      `json:"dropped"`
	MinPresence  int      `json:"min_presence"`
}

// Aggregator groups observations of the same product across platforms.
type Aggregator struct {
	policy  selection.Policy
	matcher *identity.Matcher
	logger  zerolog.Logger
}

// New creates an Aggregator. Grouping uses the substring and fuzzy tiers
// with the policy's category suffixes stripped.
//
//nolint:gocritic // Policy and zerolog.Logger are passed by value
func New(policy selection.Policy, logger zerolog.Logger) *Aggregator {
	p := policy.Clone()
	return &Aggregator{
		policy:  p,
		matcher: identity.NewMatcher(identity.WithFuzzy(), identity.WithSuffixes(p.CategorySuffixes)),
		logger:  logger.With().Str("component", "aggregate").Logger(),
	}
}

type group struct {
	canonical string
	members   []selection.Observation
}

// Aggregate returns candidates present on enough platforms, best average
// rank first. The required presence is the policy minimum, lowered to the
// number of platforms that reported at all and never below 1.
func (a *Aggregator) Aggregate(observations []selection.Observation) ([]*selection.Candidate, Stats) {
	var groups []*group
	for _, obs := range observations {
		g := a.find(groups, obs.ProductName)
		if g == nil {
			g = &group{canonical: obs.ProductName}
			groups = append(groups, g)
		}
		g.members = append(g.members, obs)
	}

	platforms := distinctPlatforms(observations)
	minPresence := a.policy.MinPresence
	if len(platforms) < minPresence {
		minPresence = len(platforms)
	}
	if minPresence < 1 {
		minPresence = 1
	}

	stats := Stats{
		Observations: len(observations),
		Platforms:    platforms,
		Groups:       len(groups),
		MinPresence:  minPresence,
	}

	candidates := make([]*selection.Candidate, 0, len(groups))
	for _, g := range groups {
		c := a.build(g)
		if c.PresenceScore < minPresence {
			stats.Dropped++
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AvgRank < candidates[j].AvgRank
	})

	a.logger.Info().
		Str("category", a.policy.Category).
		Int("observations", stats.Observations).
		Int("platforms", len(platforms)).
		Int("groups", stats.Groups).
		Int("candidates", len(candidates)).
		Int("min_presence", minPresence).
		Msg("Observations aggregated")

	if minPresence < a.policy.MinPresence {
		a.logger.Warn().
			Int("configured", a.policy.MinPresence).
			Int("effective", minPresence).
			Msg("Minimum presence lowered to the number of reporting platforms")
	}

	return candidates, stats
}

// find returns the first group whose canonical name matches name.
func (a *Aggregator) find(groups []*group, name string) *group {
	for _, g := range groups {
		if ok, _ := a.matcher.MatchText(name, g.canonical); ok {
			return g
		}
	}
	return nil
}

func (a *Aggregator) build(g *group) *selection.Candidate {
	var (
		rankSum   int
		price     int64
		code      string
		platforms = make(map[string]struct{})
		brands    = newTally()
	)
	for _, m := range g.members {
		platforms[m.Platform] = struct{}{}
		rankSum += m.Rank
		if m.Brand != "" {
			brands.add(m.Brand)
		}
		if m.Price > 0 && (price == 0 || m.Price < price) {
			price = m.Price
		}
		if m.ProductCode != "" && (code == "" || m.Platform == a.policy.PreferredPlatform) {
			code = m.ProductCode
		}
	}

	brand := brands.best()
	return &selection.Candidate{
		Name:          g.canonical,
		Brand:         brand,
		Manufacturer:  selection.Manufacturer(g.canonical, brand),
		Category:      a.policy.Category,
		ProductCode:   code,
		Observations:  append([]selection.Observation(nil), g.members...),
		PresenceScore: len(platforms),
		AvgRank:       float64(rankSum) / float64(len(g.members)),
		Price:         price,
		InStock:       true,
	}
}

func distinctPlatforms(observations []selection.Observation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range observations {
		if _, ok := seen[o.Platform]; ok {
			continue
		}
		seen[o.Platform] = struct{}{}
		out = append(out, o.Platform)
	}
	return out
}

// tally counts labels and breaks ties by first appearance.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(label string) {
	if t.counts[label] == 0 {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

func (t *tally) best() string {
	best, n := "", 0
	for _, label := range t.order {
		if t.counts[label] > n {
			best, n = label, t.counts[label]
		}
	}
	return best
}
