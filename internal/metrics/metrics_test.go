// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount extracts the sample count of one histogram series.
func histogramCount(t *testing.T, h *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	obs, err := h.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues() error = %v", err)
	}
	var m io_prometheus_client.Metric
	if err := obs.(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(SelectionRuns.WithLabelValues("test-run", OutcomeOK))

	RecordRun("test-run", OutcomeOK, 12*time.Millisecond, 7)
	RecordRun("test-run", OutcomeOK, 3*time.Millisecond, 0)

	if got := testutil.ToFloat64(SelectionRuns.WithLabelValues("test-run", OutcomeOK)); got != before+2 {
		t.Errorf("runs = %v, want %v", got, before+2)
	}
	if got := histogramCount(t, SelectionRunDuration, "test-run"); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
}

func TestRecordMerge(t *testing.T) {
	cases := testutil.ToFloat64(MergeCases.WithLabelValues("test-merge", "overlap_2"))
	recency := testutil.ToFloat64(ValidationFailures.WithLabelValues("recency"))
	repairs := testutil.ToFloat64(DiversityRepairs)

	RecordMerge("test-merge", "overlap_2", []string{"recency"}, 2)

	if got := testutil.ToFloat64(MergeCases.WithLabelValues("test-merge", "overlap_2")); got != cases+1 {
		t.Errorf("merge cases = %v, want %v", got, cases+1)
	}
	if got := testutil.ToFloat64(ValidationFailures.WithLabelValues("recency")); got != recency+1 {
		t.Errorf("validation failures = %v, want %v", got, recency+1)
	}
	if got := testutil.ToFloat64(DiversityRepairs); got != repairs+2 {
		t.Errorf("repairs = %v, want %v", got, repairs+2)
	}
}

func TestRecordCollect(t *testing.T) {
	errsBefore := testutil.ToFloat64(CollectErrors.WithLabelValues("test-src"))
	recsBefore := testutil.ToFloat64(CollectRecords.WithLabelValues("test-src"))

	RecordCollect("test-src", time.Second, 40, nil)
	RecordCollect("test-src", time.Second, 0, errors.New("timeout"))

	if got := testutil.ToFloat64(CollectRecords.WithLabelValues("test-src")); got != recsBefore+40 {
		t.Errorf("records = %v, want %v", got, recsBefore+40)
	}
	if got := testutil.ToFloat64(CollectErrors.WithLabelValues("test-src")); got != errsBefore+1 {
		t.Errorf("errors = %v, want %v", got, errsBefore+1)
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "selection_runs"))

	RecordDBQuery("INSERT", "selection_runs", 5*time.Millisecond, nil)
	RecordDBQuery("INSERT", "selection_runs", 5*time.Millisecond, errors.New("constraint"))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "selection_runs")); got != before+1 {
		t.Errorf("db errors = %v, want %v", got, before+1)
	}
}

func TestRecordSnapshotAndPublish(t *testing.T) {
	fail := testutil.ToFloat64(SnapshotOperations.WithLabelValues("put", "failure"))
	RecordSnapshot("put", errors.New("disk full"))
	if got := testutil.ToFloat64(SnapshotOperations.WithLabelValues("put", "failure")); got != fail+1 {
		t.Errorf("snapshot failures = %v, want %v", got, fail+1)
	}

	pub := testutil.ToFloat64(EventsPublished.WithLabelValues("test.topic"))
	RecordPublish("test.topic", nil)
	RecordPublish("test.topic", errors.New("closed"))
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("test.topic")); got != pub+1 {
		t.Errorf("published = %v, want %v", got, pub+1)
	}
}

func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordRun("concurrent", OutcomeOK, time.Millisecond, 3)
			RecordAPIRequest("GET", "/api/v1/categories", "200", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(SelectionRuns.WithLabelValues("concurrent", OutcomeOK)); got < 50 {
		t.Errorf("concurrent runs = %v, want >= 50", got)
	}
}

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		SelectionRuns, SelectionRunDuration, SelectionPoolSize, MergeCases,
		ValidationFailures, DiversityRepairs, CollectDuration, CollectErrors,
		CollectRecords, CircuitBreakerState, CircuitBreakerRequests,
		CircuitBreakerTransitions, DBQueryDuration, DBQueryErrors,
		SnapshotOperations, EventsPublished, EventPublishErrors,
		APIRequestsTotal, APIRequestDuration, APIActiveRequests,
		APIRateLimitHits, CacheRequests, AppInfo, SchedulerLastSuccess,
	}
	for i, c := range collectors {
		if err := prometheus.Register(c); err == nil {
			t.Errorf("collector %d was not registered by promauto", i)
		}
	}
}
