// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/selection"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id, category string, day int, names ...string) *pipeline.Run {
	asOf := time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
	run := &pipeline.Run{
		ID:         id,
		Category:   category,
		Keyword:    "로봇청소기",
		AsOf:       asOf,
		SnapshotID: "snap-" + id,
		Selection: selection.SelectionResult{
			Category:          category,
			SelectionDate:     asOf,
			CandidatePoolSize: 7,
			Strategy:          "signal_richness",
			Validation: []selection.Finding{
				{CheckName: "brand_diversity", Passed: true, Detail: "3 distinct manufacturers"},
				{CheckName: "price_tier_coverage", Passed: false, Detail: "missing budget"},
			},
		},
		Final: selection.FinalSelectionResult{
			Category:      category,
			SelectionDate: asOf,
			MergeCase:     selection.MergeOverlap1,
		},
		Warnings: []string{"no organic recommendation data"},
	}
	for i, n := range names {
		run.Final.Final = append(run.Final.Final, selection.FinalPick{
			Rank: i + 1, Name: n, Brand: "b", Price: 100000, Source: selection.FromSelection,
		})
	}
	return run
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := testRun("run-1", "robot_vacuum", 1, "Roborock S8", "Samsung Jet", "Dreame L40")
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	rec, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if rec.Run.ID != "run-1" || rec.Run.SnapshotID != "snap-run-1" {
		t.Errorf("run header = %+v", rec.Run)
	}
	if len(rec.Run.Final.Final) != 3 || rec.Run.Final.Final[2].Name != "Dreame L40" {
		t.Errorf("final = %+v", rec.Run.Final.Final)
	}
	if rec.Run.Final.MergeCase != selection.MergeOverlap1 {
		t.Errorf("merge case = %q", rec.Run.Final.MergeCase)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	var picks, findings int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM final_picks WHERE run_id = 'run-1'").Scan(&picks); err != nil {
		t.Fatal(err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM validation_findings WHERE run_id = 'run-1'").Scan(&findings); err != nil {
		t.Fatal(err)
	}
	if picks != 3 || findings != 2 {
		t.Errorf("picks = %d, findings = %d, want 3 and 2", picks, findings)
	}
}

func TestSaveRun_Replaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, testRun("run-1", "robot_vacuum", 1, "A", "B", "C")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, testRun("run-1", "robot_vacuum", 1, "D", "E")); err != nil {
		t.Fatalf("second SaveRun() error = %v", err)
	}
	var picks int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM final_picks WHERE run_id = 'run-1'").Scan(&picks); err != nil {
		t.Fatal(err)
	}
	if picks != 2 {
		t.Errorf("picks = %d, want 2 after replace", picks)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetRun(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := s.LatestRun(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLatestAndListRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, r := range []*pipeline.Run{
		testRun("r2", "robot_vacuum", 2, "A"),
		testRun("r3", "robot_vacuum", 3, "A"),
		testRun("r1", "robot_vacuum", 1, "A"),
		testRun("p1", "air_purifier", 9, "A"),
	} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := s.LatestRun(ctx, "robot_vacuum")
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.Run.ID != "r3" {
		t.Errorf("LatestRun() = %s, want r3", latest.Run.ID)
	}

	list, err := s.ListRuns(ctx, "robot_vacuum", 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "r3" || list[1].ID != "r2" {
		t.Errorf("ListRuns() = %+v", list)
	}
	if list[0].Passed || list[0].Strategy != "signal_richness" || list[0].SnapshotID != "snap-r3" {
		t.Errorf("summary = %+v", list[0])
	}

	all, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns(all) error = %v", err)
	}
	if len(all) != 4 || all[0].ID != "p1" {
		t.Errorf("ListRuns(all) = %+v", all)
	}
}

func TestPickHistory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, r := range []*pipeline.Run{
		testRun("h1", "robot_vacuum", 1, "Roborock S8", "Samsung Jet", "Dreame L40"),
		testRun("h2", "robot_vacuum", 2, "Samsung Jet", "Roborock S8", "Ecovacs X2"),
		testRun("h3", "robot_vacuum", 3, "Roborock S8", "Ecovacs X2", "LG CordZero"),
		testRun("o1", "air_purifier", 3, "Roborock S8"),
	} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.PickHistory(ctx, "robot_vacuum", 3)
	if err != nil {
		t.Fatalf("PickHistory() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("PickHistory() = %+v", got)
	}
	if got[0].Name != "Roborock S8" || got[0].Picks != 3 || got[0].BestRank != 1 {
		t.Errorf("top = %+v", got[0])
	}
	if !got[0].LastSeen.Equal(time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastSeen = %v", got[0].LastSeen)
	}
	// Samsung Jet (best 1) ranks ahead of Ecovacs X2 (best 2) at two picks each.
	if got[1].Name != "Samsung Jet" || got[2].Name != "Ecovacs X2" {
		t.Errorf("order = %s, %s", got[1].Name, got[2].Name)
	}
}

func TestSaveRun_Nil(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveRun(context.Background(), nil); err == nil {
		t.Error("expected error for nil run")
	}
}
