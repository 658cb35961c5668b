// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package aggregate

import (
	"testing"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/selection"
)

func obs(platform string, rank int, name, brand string, price int64, code string) selection.Observation {
	return selection.Observation{
		ProductName: name,
		Brand:       brand,
		Platform:    platform,
		Rank:        rank,
		Price:       price,
		ProductCode: code,
	}
}

func crossPlatform() []selection.Observation {
	return []selection.Observation{
		obs("naver", 1, "로보락 S8 MaxV Ultra 로봇청소기", "로보락", 1_390_000, "N1"),
		obs("naver", 2, "삼성 비스포크 제트 AI", "삼성", 990_000, "N2"),
		obs("naver", 3, "Tineco Floor One S7", "", 500_000, ""),
		obs("danawa", 1, "삼성 비스포크 제트 AI 청소기", "삼성", 0, "D2"),
		obs("danawa", 2, "로보락 S8 MaxV Ultra", "Roborock", 1_290_000, "D1"),
		obs("coupang", 3, "로보락 S8 MaxV Ultra (정품)", "로보락", 1_350_000, "C1"),
	}
}

func TestAggregate_CrossPlatform(t *testing.T) {
	t.Parallel()

	agg := New(selection.DefaultPolicy("robot-vacuum"), logging.NewNopLogger())
	pool, stats := agg.Aggregate(crossPlatform())

	if len(pool) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(pool))
	}
	if stats.Observations != 6 || stats.Groups != 3 || stats.Dropped != 1 || stats.MinPresence != 2 {
		t.Errorf("stats = %+v", stats)
	}

	samsung, roborock := pool[0], pool[1]

	if samsung.Name != "삼성 비스포크 제트 AI" {
		t.Errorf("canonical name = %q, want first seen", samsung.Name)
	}
	if samsung.PresenceScore != 2 || samsung.AvgRank != 1.5 {
		t.Errorf("samsung presence/rank = %d/%.2f", samsung.PresenceScore, samsung.AvgRank)
	}
	if samsung.Price != 990_000 {
		t.Errorf("samsung price = %d, zero prices must be ignored", samsung.Price)
	}
	if samsung.ProductCode != "D2" {
		t.Errorf("samsung code = %q, want preferred platform code", samsung.ProductCode)
	}
	if samsung.Manufacturer != "Samsung" || samsung.Category != "robot-vacuum" || !samsung.InStock {
		t.Errorf("samsung = %+v", samsung)
	}

	if roborock.PresenceScore != 3 || roborock.AvgRank != 2 {
		t.Errorf("roborock presence/rank = %d/%.2f", roborock.PresenceScore, roborock.AvgRank)
	}
	if roborock.Brand != "로보락" {
		t.Errorf("brand = %q, want most frequent label", roborock.Brand)
	}
	if roborock.Price != 1_290_000 || roborock.ProductCode != "D1" || len(roborock.Observations) != 3 {
		t.Errorf("roborock = %+v", roborock)
	}
}

func TestAggregate_PresenceCountsDistinctPlatforms(t *testing.T) {
	t.Parallel()

	input := []selection.Observation{
		obs("naver", 1, "Dreame L40 Ultra", "Dreame", 1_100_000, ""),
		obs("naver", 4, "Dreame L40 Ultra", "Dreame", 1_090_000, ""),
		obs("danawa", 7, "Dreame L40 Ultra", "Dreame", 1_150_000, ""),
	}

	pool, _ := New(selection.DefaultPolicy("robot-vacuum"), logging.NewNopLogger()).Aggregate(input)
	if len(pool) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(pool))
	}
	if pool[0].PresenceScore != 2 {
		t.Errorf("PresenceScore = %d, want 2 distinct platforms", pool[0].PresenceScore)
	}
	if pool[0].AvgRank != 4 {
		t.Errorf("AvgRank = %.2f, want mean over all member ranks", pool[0].AvgRank)
	}
}

func TestAggregate_SingleSourceLowersMinPresence(t *testing.T) {
	t.Parallel()

	input := []selection.Observation{
		obs("naver", 2, "Dreame L40 Ultra", "Dreame", 1_100_000, ""),
		obs("naver", 1, "Narwal Freo Z Ultra", "Narwal", 1_300_000, ""),
	}

	pool, stats := New(selection.DefaultPolicy("robot-vacuum"), logging.NewNopLogger()).Aggregate(input)
	if stats.MinPresence != 1 || len(pool) != 2 {
		t.Fatalf("min presence %d, pool %d", stats.MinPresence, len(pool))
	}
	if pool[0].Name != "Narwal Freo Z Ultra" {
		t.Errorf("pool not sorted by avg rank: %s first", pool[0].Name)
	}
}

func TestAggregate_BrandTieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	input := []selection.Observation{
		obs("naver", 1, "비스포크 AI 스팀 VR7MD97714G", "비스포크", 1_000_000, ""),
		obs("danawa", 1, "비스포크 AI 스팀 VR7MD97714G", "삼성전자", 1_000_000, ""),
	}

	for i := 0; i < 20; i++ {
		pool, _ := New(selection.DefaultPolicy("robot-vacuum"), logging.NewNopLogger()).Aggregate(input)
		if pool[0].Brand != "비스포크" {
			t.Fatalf("run %d: brand = %q, want first seen label", i, pool[0].Brand)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	pool, stats := New(selection.DefaultPolicy("robot-vacuum"), logging.NewNopLogger()).Aggregate(nil)
	if len(pool) != 0 || stats.MinPresence != 1 {
		t.Errorf("pool %d, stats %+v", len(pool), stats)
	}
}
