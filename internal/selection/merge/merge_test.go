// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package merge

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/selection"
)

const (
	nameA1 = "Roborock S8MaxV Ultra"
	nameA2 = "Samsung Jet AI VR50T95735W"
	nameA3 = "Ecovacs Deebot X2 Omni"
)

func slot(rank int, label, name, brand string, price int64, total float64) selection.Slot {
	return selection.Slot{
		Rank:    rank,
		Label:   label,
		Name:    name,
		Brand:   brand,
		Price:   price,
		Reasons: []string{"Score"},
		Scores:  selection.DimensionScores{Strategy: "commercial_value", Total: total},
	}
}

func selectionOf(slots ...selection.Slot) *selection.SelectionResult {
	return &selection.SelectionResult{
		Category:      "robot-vacuum",
		SelectionDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Selected:      slots,
	}
}

func fullSelection() *selection.SelectionResult {
	return selectionOf(
		slot(1, "value", nameA1, "Roborock", 1_290_000, 0.91),
		slot(2, "balance", nameA2, "Samsung", 990_000, 0.74),
		slot(3, "premium", nameA3, "Ecovacs", 1_490_000, 0.52),
	)
}

func organicOf(top ...selection.ProductMention) *selection.RecommendationResult {
	return &selection.RecommendationResult{Keyword: "로봇청소기", Top: top}
}

var (
	dreame = selection.ProductMention{Name: "Dreame L40 Ultra", NormalizedKey: "dreame l40 ultra", MentionCount: 9}
	s8     = selection.ProductMention{Name: "로보락 S8MaxV 울트라", NormalizedKey: "S8MAXV", MentionCount: 12}
	jet    = selection.ProductMention{Name: "삼성 VR50T95735W", NormalizedKey: "VR50T95735W", MentionCount: 7}
)

func names(picks []selection.FinalPick) []string {
	out := make([]string, len(picks))
	for i := range picks {
		out[i] = picks[i].Name
	}
	return out
}

func assertNames(t *testing.T, picks []selection.FinalPick, want ...string) {
	t.Helper()
	got := names(picks)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("final = %v, want %v", got, want)
	}
	for i := range picks {
		if picks[i].Rank != i+1 {
			t.Errorf("final[%d].Rank = %d, want %d", i, picks[i].Rank, i+1)
		}
	}
}

func TestMerge_NoOverlap(t *testing.T) {
	t.Parallel()

	res := New(logging.NewNopLogger()).Merge(fullSelection(), organicOf(dreame))

	if res.MergeCase != selection.MergeDefault {
		t.Errorf("MergeCase = %s, want default", res.MergeCase)
	}
	assertNames(t, res.Final, nameA1, nameA2, dreame.Name)

	v := res.Final[2]
	if v.Source != selection.FromOrganic || v.Brand != "" || v.Price != 0 {
		t.Errorf("organic pick = %+v", v)
	}
	if v.MentionCount != 9 || v.NormalizedKey != "dreame l40 ultra" || v.Label != OrganicLabel {
		t.Errorf("organic fields not propagated: %+v", v)
	}
	for _, p := range res.Final[:2] {
		if p.Source != selection.FromSelection {
			t.Errorf("%s source = %s, want a-pipeline", p.Name, p.Source)
		}
	}
	if res.Category != "robot-vacuum" || !res.SelectionDate.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("header = %s/%v", res.Category, res.SelectionDate)
	}
}

func TestMerge_SingleOverlap(t *testing.T) {
	t.Parallel()

	res := New(logging.NewNopLogger()).Merge(fullSelection(), organicOf(s8, dreame))

	if res.MergeCase != selection.MergeOverlap1 {
		t.Errorf("MergeCase = %s, want overlap_1", res.MergeCase)
	}
	assertNames(t, res.Final, nameA1, nameA2, dreame.Name)

	a1 := res.Final[0]
	if a1.Source != selection.FromBoth || a1.MatchMethod != "model_code" {
		t.Errorf("A1 = source %s method %q, want both/model_code", a1.Source, a1.MatchMethod)
	}
	if last := a1.Reasons[len(a1.Reasons)-1]; last != "Also organic recommendation (mentioned 12 times)" {
		t.Errorf("A1 reason = %q", last)
	}
	if res.Final[2].Source != selection.FromOrganic {
		t.Errorf("slot 3 source = %s", res.Final[2].Source)
	}

	if len(res.MatchDetails) != 2 {
		t.Fatalf("match details = %+v", res.MatchDetails)
	}
	d := res.MatchDetails[0]
	if d.OrganicRank != 1 || d.SelectRank != 1 || d.SelectProduct != nameA1 || d.MatchMethod != "model_code" {
		t.Errorf("detail = %+v", d)
	}
	if res.MatchDetails[1].Note == "" {
		t.Error("expected an overlap note")
	}
}

func TestMerge_DoubleOverlap(t *testing.T) {
	t.Parallel()

	res := New(logging.NewNopLogger()).Merge(fullSelection(), organicOf(s8, jet))

	if res.MergeCase != selection.MergeOverlap2 {
		t.Errorf("MergeCase = %s, want overlap_2", res.MergeCase)
	}
	assertNames(t, res.Final, nameA1, nameA3, nameA2)

	demoted := res.Final[2]
	if demoted.Source != selection.FromBoth {
		t.Errorf("demoted A2 source = %s, want both", demoted.Source)
	}
	if demoted.SelectRank != 2 || demoted.MentionCount != 7 || demoted.MatchMethod != "model_code" {
		t.Errorf("demoted A2 = %+v", demoted)
	}
	if demoted.Label != "balance" || demoted.Price != 990_000 || demoted.Scores == nil {
		t.Errorf("demoted A2 lost selection fields: %+v", demoted)
	}
	if res.Final[1].Source != selection.FromSelection || res.Final[1].SelectRank != 3 {
		t.Errorf("promoted A3 = %+v", res.Final[1])
	}
}

func TestMerge_Degradations(t *testing.T) {
	t.Parallel()

	m := New(logging.NewNopLogger())

	tests := []struct {
		name  string
		a     *selection.SelectionResult
		b     *selection.RecommendationResult
		cases selection.MergeCase
		want  []string
	}{
		{
			name:  "no organic data",
			a:     fullSelection(),
			b:     organicOf(),
			cases: selection.MergeDefault,
			want:  []string{nameA1, nameA2, nameA3},
		},
		{
			name:  "nil organic result",
			a:     fullSelection(),
			b:     nil,
			cases: selection.MergeDefault,
			want:  []string{nameA1, nameA2, nameA3},
		},
		{
			name: "double overlap with two picks",
			a: selectionOf(
				slot(1, "value", nameA1, "Roborock", 1, 0.9),
				slot(2, "balance", nameA2, "Samsung", 2, 0.8),
			),
			b:     organicOf(s8, jet),
			cases: selection.MergeOverlap2,
			want:  []string{nameA1, nameA2},
		},
		{
			name:  "single pick without overlap",
			a:     selectionOf(slot(1, "value", nameA1, "Roborock", 1, 0.9)),
			b:     organicOf(dreame),
			cases: selection.MergeDefault,
			want:  []string{nameA1, dreame.Name},
		},
		{
			name:  "lone organic pick overlapping",
			a:     fullSelection(),
			b:     organicOf(s8),
			cases: selection.MergeOverlap2,
			want:  []string{nameA1, nameA3, nameA2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := m.Merge(tt.a, tt.b)
			if res.MergeCase != tt.cases {
				t.Errorf("MergeCase = %s, want %s", res.MergeCase, tt.cases)
			}
			assertNames(t, res.Final, tt.want...)
		})
	}
}

func TestMerge_LoneOverlapHasNoMethodOnDemoted(t *testing.T) {
	t.Parallel()

	res := New(logging.NewNopLogger()).Merge(fullSelection(), organicOf(s8))
	demoted := res.Final[2]
	if demoted.MatchMethod != "" || demoted.MentionCount != 12 {
		t.Errorf("demoted = %+v", demoted)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	m := New(logging.NewNopLogger())
	first := m.Merge(fullSelection(), organicOf(s8, jet))
	second := m.Merge(fullSelection(), organicOf(s8, jet))
	if strings.Join(names(first.Final), "|") != strings.Join(names(second.Final), "|") {
		t.Errorf("merge not idempotent: %v vs %v", names(first.Final), names(second.Final))
	}
}
