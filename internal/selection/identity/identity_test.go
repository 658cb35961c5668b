// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package identity

import (
	"math"
	"reflect"
	"testing"
)

func TestModelCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"삼성전자 비스포크 제트 AI VS28C970DPR", "VS28C970DPR"},
		{"LG 코드제로 R5-M9600", "R5M9600"},
		{"dreame l40 ultra rp13c1022s9", "RP13C1022S9"},
		{"Roborock Q Revo S", ""},
		{"X40 Pro", ""},
		{"2024 Edition X1234 Omni", "X1234"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ModelCode(tt.name); got != tt.want {
				t.Errorf("ModelCode(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestModelTokens(t *testing.T) {
	t.Parallel()

	got := ModelTokens("Dreame RP13 L40s-Ultra AX-12 Plus")
	want := []string{"RP13", "L40SULTRA", "AX12"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ModelTokens() = %v, want %v", got, want)
	}
	if toks := ModelTokens("Roborock Q Revo"); toks != nil {
		t.Errorf("expected no tokens, got %v", toks)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	n := NewNormalizer([]string{"청소기", "로봇청소기"})
	tests := []struct {
		in   string
		want string
	}{
		{"삼성 비스포크 로봇청소기 (2024년형)", "삼성 비스포크"},
		{"  Roborock   Q Revo S  [정품] ", "roborock q revo s"},
		{"ＲＯＢＯＲＯＣＫ Ｑ Ｒｅｖｏ", "roborock q revo"},
		{"에코백스 【특가】 X2 청소기", "에코백스 x2"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := Key("에코백스 【특가】 X2 청소기"); got != "에코백스 x2 청소기" {
		t.Errorf("Key() = %q", got)
	}
}

func TestMatcher_Tiers(t *testing.T) {
	t.Parallel()

	m := NewMatcher(WithSuffixes([]string{"로봇청소기"}))

	tests := []struct {
		name    string
		a, b    string
		matched bool
		method  Method
	}{
		{"model code", "삼성 비스포크 AI VS28C970DPR", "VS28C970DPR 스팀 블랙", true, MethodModelCode},
		{"model code prefix", "Dreame L10s RP13C1022S9", "드리미 RP13 로봇청소기", true, MethodModelCodePrefix},
		{"substring", "Roborock Q Revo S 로봇청소기", "roborock q revo s 화이트 에디션", true, MethodSubstring},
		{"equal short names", "X2", "x2", false, MethodNone},
		{"substring too short", "Jet AI", "Jet", false, MethodNone},
		{"unrelated", "Dreame L40 Ultra", "Samsung Jet AI", false, MethodNone},
		{"fuzzy disabled", "Dreame L40 Ultra", "Dreame L40s Ultra", false, MethodNone},
		{"empty", "", "Samsung Jet AI", false, MethodNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			matched, method := m.Match(tt.a, tt.b)
			if matched != tt.matched || method != tt.method {
				t.Errorf("Match(%q, %q) = (%v, %s), want (%v, %s)", tt.a, tt.b, matched, method, tt.matched, tt.method)
			}
		})
	}
}

func TestMatcher_BrandOnlyNamesDoNotMatch(t *testing.T) {
	t.Parallel()

	m := NewMatcher(WithSuffixes([]string{"로봇청소기", "청소기", "공기청정기"}))

	tests := []struct{ a, b string }{
		{"삼성 로봇청소기", "삼성 공기청정기"},
		{"LG 청소기", "LG 공기청정기"},
	}
	for _, tt := range tests {
		if matched, method := m.Match(tt.a, tt.b); matched || method != MethodNone {
			t.Errorf("Match(%q, %q) = (%v, %s), want no match", tt.a, tt.b, matched, method)
		}
	}
}

func TestMatcher_Fuzzy(t *testing.T) {
	t.Parallel()

	m := NewMatcher(WithFuzzy())

	matched, method := m.MatchText("Dreame L40 Ultra", "Dreame L40s Ultra")
	if !matched || method != MethodFuzzyRatio {
		t.Errorf("MatchText() = (%v, %s), want fuzzy match", matched, method)
	}

	matched, _ = m.MatchText("Dreame L40 Ultra", "Samsung Jet AI")
	if matched {
		t.Error("unrelated names must not fuzzy match")
	}
}

func TestMatcher_MatchKeyed(t *testing.T) {
	t.Parallel()

	m := NewMatcher()

	// The mention surface form carries no code but its grouping key does.
	matched, method := m.MatchKeyed("삼성 비스포크 VS28C970DPR", "비스포크 신형", "vs28c970dpr")
	if !matched || method != MethodModelCode {
		t.Errorf("MatchKeyed() = (%v, %s), want model_code", matched, method)
	}

	matched, method = m.MatchKeyed("Dreame RP13C1022S9", "드리미 신제품", "rp13")
	if !matched || method != MethodModelCodePrefix {
		t.Errorf("MatchKeyed() = (%v, %s), want model_code_prefix", matched, method)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcde", "abcdf", 0.8},
		{"abc", "abc", 1.0},
		{"abc", "xyz", 0.0},
		{"", "", 0.0},
		{"로보락 s8", "로보락 s7", 10.0 / 12.0},
	}
	for _, tt := range tests {
		got := m.Ratio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	// Deterministic across calls.
	first := m.Ratio("roborock q revo s ultra", "roborock qrevo ultra")
	for i := 0; i < 10; i++ {
		if got := m.Ratio("roborock q revo s ultra", "roborock qrevo ultra"); got != first {
			t.Fatalf("Ratio() not deterministic: %v vs %v", got, first)
		}
	}
}
