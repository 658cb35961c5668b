// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package collect

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/selection"
)

type fakeObservations struct {
	name  string
	delay time.Duration
	obs   []selection.Observation
	err   error
	calls atomic.Int32
}

func (f *fakeObservations) Name() string { return f.name }

func (f *fakeObservations) FetchObservations(ctx context.Context, _ Query) ([]selection.Observation, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.obs, f.err
}

type fakeMentions struct {
	name     string
	mentions []selection.Mention
	err      error
}

func (f *fakeMentions) Name() string { return f.name }

func (f *fakeMentions) FetchMentions(context.Context, Query) ([]selection.Mention, error) {
	return f.mentions, f.err
}

type fakeSignals struct {
	name    string
	signals map[string]selection.Signals
	err     error
}

func (f *fakeSignals) Name() string { return f.name }

func (f *fakeSignals) FetchSignals(context.Context, Query) (map[string]selection.Signals, error) {
	return f.signals, f.err
}

func obs(platform, name string, rank int) selection.Observation {
	return selection.Observation{ProductName: name, Platform: platform, Rank: rank, Price: 500000}
}

func testConfig() Config {
	return Config{Timeout: time.Second, Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Hour}}
}

func TestCollect_RegistrationOrder(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	// The first source finishes last; output order must not depend on timing.
	slow := &fakeObservations{name: "order-naver", delay: 30 * time.Millisecond, obs: []selection.Observation{obs("naver", "A", 1)}}
	fast := &fakeObservations{name: "order-danawa", obs: []selection.Observation{obs("danawa", "B", 1), obs("danawa", "C", 2)}}
	if err := c.AddObservationSource(slow); err != nil {
		t.Fatal(err)
	}
	if err := c.AddObservationSource(fast); err != nil {
		t.Fatal(err)
	}

	batch, err := c.Collect(context.Background(), Query{Category: "robot_vacuum", Keyword: "로봇청소기"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	var got []string
	for _, o := range batch.Observations {
		got = append(got, o.ProductName)
	}
	if strings.Join(got, ",") != "A,B,C" {
		t.Errorf("observation order = %v, want [A B C]", got)
	}
	if batch.Category != "robot_vacuum" || batch.Keyword != "로봇청소기" {
		t.Errorf("batch header = %q/%q", batch.Category, batch.Keyword)
	}
	if batch.AsOf.IsZero() {
		t.Error("AsOf not stamped")
	}
	if len(batch.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", batch.Warnings)
	}
}

func TestCollect_PartialFailureBecomesWarning(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	_ = c.AddObservationSource(&fakeObservations{name: "partial-naver", obs: []selection.Observation{obs("naver", "A", 1)}})
	_ = c.AddObservationSource(&fakeObservations{name: "partial-coupang", err: errors.New("blocked")})
	_ = c.AddMentionSource(&fakeMentions{name: "partial-mentions", err: errors.New("timeout")})

	batch, err := c.Collect(context.Background(), Query{Category: "c"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(batch.Observations) != 1 {
		t.Errorf("observations = %d, want 1", len(batch.Observations))
	}
	if len(batch.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", batch.Warnings)
	}
	if !strings.Contains(batch.Warnings[0], "partial-coupang") || !strings.Contains(batch.Warnings[0], "blocked") {
		t.Errorf("warning[0] = %q", batch.Warnings[0])
	}
	if !strings.Contains(batch.Warnings[1], "partial-mentions") {
		t.Errorf("warning[1] = %q", batch.Warnings[1])
	}
}

func TestCollect_AllObservationSourcesFail(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	_ = c.AddObservationSource(&fakeObservations{name: "dead-naver", err: errors.New("down")})
	_ = c.AddObservationSource(&fakeObservations{name: "dead-danawa", err: errors.New("down")})

	_, err := c.Collect(context.Background(), Query{Category: "c"})
	if !errors.Is(err, ErrNoObservations) {
		t.Fatalf("error = %v, want ErrNoObservations", err)
	}
	if !strings.Contains(err.Error(), "dead-danawa") {
		t.Errorf("error should name failed sources: %v", err)
	}
}

func TestCollect_NoSources(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	if _, err := c.Collect(context.Background(), Query{}); !errors.Is(err, ErrNoSources) {
		t.Errorf("error = %v, want ErrNoSources", err)
	}
}

func TestCollect_DuplicateName(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	if err := c.AddObservationSource(&fakeObservations{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddSignalSource(&fakeSignals{name: "dup"}); !errors.Is(err, ErrDuplicateSource) {
		t.Errorf("error = %v, want ErrDuplicateSource", err)
	}
}

func TestCollect_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	failing := &fakeObservations{name: "breaker-coupang", err: errors.New("503")}
	_ = c.AddObservationSource(&fakeObservations{name: "breaker-naver", obs: []selection.Observation{obs("naver", "A", 1)}})
	_ = c.AddObservationSource(failing)

	for i := 0; i < 2; i++ {
		if _, err := c.Collect(context.Background(), Query{Category: "c"}); err != nil {
			t.Fatalf("Collect() #%d error = %v", i, err)
		}
	}
	if got := c.SourceStates()["breaker-coupang"]; got != "open" {
		t.Fatalf("breaker state = %q, want open", got)
	}

	batch, err := c.Collect(context.Background(), Query{Category: "c"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := failing.calls.Load(); got != 2 {
		t.Errorf("failing source called %d times, want 2", got)
	}
	if len(batch.Warnings) != 1 || !strings.Contains(batch.Warnings[0], "circuit open") {
		t.Errorf("warnings = %v, want circuit open", batch.Warnings)
	}
	if got := c.SourceStates()["breaker-naver"]; got != "closed" {
		t.Errorf("healthy breaker state = %q, want closed", got)
	}
}

func TestCollect_PerSourceTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	c := NewCollector(cfg, zerolog.Nop())
	_ = c.AddObservationSource(&fakeObservations{name: "timeout-naver", obs: []selection.Observation{obs("naver", "A", 1)}})
	_ = c.AddObservationSource(&fakeObservations{name: "timeout-slow", delay: time.Second})

	batch, err := c.Collect(context.Background(), Query{Category: "c"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(batch.Warnings) != 1 || !strings.Contains(batch.Warnings[0], "deadline exceeded") {
		t.Errorf("warnings = %v, want deadline exceeded", batch.Warnings)
	}
}

func TestCollect_CanceledContext(t *testing.T) {
	t.Parallel()

	c := NewCollector(testConfig(), zerolog.Nop())
	_ = c.AddObservationSource(&fakeObservations{name: "cancel-naver", delay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Collect(ctx, Query{Category: "c"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if got := c.SourceStates()["cancel-naver"]; got != "closed" {
		t.Errorf("cancellation tripped breaker: %q", got)
	}
}

func TestCollect_SignalsMergeInOrder(t *testing.T) {
	t.Parallel()

	resale := 0.72
	inStock := false
	c := NewCollector(testConfig(), zerolog.Nop())
	_ = c.AddObservationSource(&fakeObservations{name: "signals-naver", obs: []selection.Observation{obs("naver", "A", 1)}})
	_ = c.AddSignalSource(&fakeSignals{name: "signals-keyword", signals: map[string]selection.Signals{
		"A": {Keyword: &selection.KeywordMetrics{MonthlySearchVolume: 1000}, ReleaseDate: "2024-01-01"},
	}})
	_ = c.AddSignalSource(&fakeSignals{name: "signals-used", signals: map[string]selection.Signals{
		"A": {ResaleRatio: &resale, ReleaseDate: "2024-03-01", InStock: &inStock},
	}})

	batch, err := c.Collect(context.Background(), Query{Category: "c"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	got := batch.Signals["A"]
	if got.Keyword == nil || got.Keyword.MonthlySearchVolume != 1000 {
		t.Errorf("keyword metrics lost: %+v", got.Keyword)
	}
	if got.ResaleRatio == nil || *got.ResaleRatio != 0.72 {
		t.Errorf("resale ratio = %v", got.ResaleRatio)
	}
	if got.ReleaseDate != "2024-03-01" {
		t.Errorf("release date = %q, want later source to win", got.ReleaseDate)
	}
	if got.InStock == nil || *got.InStock {
		t.Errorf("in stock = %v, want false", got.InStock)
	}
}
