// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shortlist/internal/cache"
	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/pipeline"
	"github.com/tomtom215/shortlist/internal/selection"
	"github.com/tomtom215/shortlist/internal/snapshot"
	"github.com/tomtom215/shortlist/internal/store"
	"github.com/tomtom215/shortlist/internal/validation"
)

// maxBatchBytes bounds POST bodies.
const maxBatchBytes = 8 << 20

// Runner executes runs.
type Runner interface {
	Execute(ctx context.Context, batch pipeline.Batch) (*pipeline.Run, error)
	RunCategory(ctx context.Context, category, keyword string) (*pipeline.Run, error)
	Replay(ctx context.Context, snapshotID string) (*pipeline.Run, error)
}

// Policies exposes the engine's policy table.
type Policies interface {
	Categories() []string
	Policy(category string) selection.Policy
}

// RunReader reads stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*store.Record, error)
	LatestRun(ctx context.Context, category string) (*store.Record, error)
	ListRuns(ctx context.Context, category string, limit int) ([]store.Summary, error)
	PickHistory(ctx context.Context, category string, limit int) ([]store.PickCount, error)
	Ping(ctx context.Context) error
}

// SnapshotLister lists stored batches.
type SnapshotLister interface {
	List(ctx context.Context, category string, limit int) ([]snapshot.Summary, error)
}

// Deps are the handler's collaborators. Runs and Snapshots may be nil,
// in which case their endpoints answer 503.
type Deps struct {
	Runner    Runner
	Policies  Policies
	Runs      RunReader
	Snapshots SnapshotLister
	// Keywords maps configured categories to their search keyword.
	Keywords map[string]string
	Version  string
	// CacheTTL bounds how stale cached reads of the latest run and pick
	// history may be. Zero disables the cache.
	CacheTTL time.Duration
}

// Handler serves the API.
type Handler struct {
	deps    Deps
	latest  *cache.Cache[*store.Record]
	history *cache.Cache[[]store.PickCount]
}

// NewHandler creates a Handler.
//
//nolint:gocritic // Deps is copied once at construction
func NewHandler(deps Deps) *Handler {
	return &Handler{
		deps:    deps,
		latest:  cache.New[*store.Record]("latest-run", deps.CacheTTL, 256),
		history: cache.New[[]store.PickCount]("pick-history", deps.CacheTTL, 256),
	}
}

// InvalidateReads drops cached reads. Runs created through the API do this
// themselves; other writers call it after storing a run.
func (h *Handler) InvalidateReads() {
	h.latest.Clear()
	h.history.Clear()
}

// CategoryInfo describes one configured category.
type CategoryInfo struct {
	Category string           `json:"category"`
	Keyword  string           `json:"keyword,omitempty"`
	Policy   selection.Policy `json:"policy"`
}

// runRequest is the validated subset of a POST /runs body.
type runRequest struct {
	Category     string                  `validate:"required,categorykey"`
	Observations []selection.Observation `validate:"min=1"`
}

// HealthLive reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// HealthReady reports whether storage is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := map[string]string{"status": "ok", "version": h.deps.Version}
	if h.deps.Runs != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Runs.Ping(ctx); err != nil {
			rw.ServiceUnavailable("run store unavailable")
			return
		}
		status["store"] = "ok"
	}
	rw.Success(status)
}

// ListCategories lists every category with its effective policy.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.deps.Policies.Categories()
	out := make([]CategoryInfo, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryInfo{Category: c, Keyword: h.deps.Keywords[c], Policy: h.deps.Policies.Policy(c)})
	}
	NewResponseWriter(w, r).List(out, len(out))
}

// GetPolicy returns the effective policy of a category. Unknown categories
// get the default policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	NewResponseWriter(w, r).Success(h.deps.Policies.Policy(category))
}

// LatestRun returns the newest stored run of a category.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Runs == nil {
		rw.ServiceUnavailable("run store not configured")
		return
	}
	category := chi.URLParam(r, "category")
	if rec, ok := h.latest.Get(category); ok {
		rw.Success(rec)
		return
	}
	rec, err := h.deps.Runs.LatestRun(r.Context(), category)
	if err == nil {
		h.latest.Set(category, rec)
	}
	h.writeRecord(rw, rec, err)
}

// GetRun returns one stored run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Runs == nil {
		rw.ServiceUnavailable("run store not configured")
		return
	}
	rec, err := h.deps.Runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	h.writeRecord(rw, rec, err)
}

func (h *Handler) writeRecord(rw *ResponseWriter, rec *store.Record, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("run not found")
	case err != nil:
		rw.DatabaseError(err)
	default:
		rw.Success(rec)
	}
}

// ListRuns lists run summaries, optionally filtered by ?category=.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Runs == nil {
		rw.ServiceUnavailable("run store not configured")
		return
	}
	limit, ok := limitParam(rw, r, 50)
	if !ok {
		return
	}
	runs, err := h.deps.Runs.ListRuns(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.List(runs, len(runs))
}

// PickHistory counts how often products made a category's final list.
func (h *Handler) PickHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Runs == nil {
		rw.ServiceUnavailable("run store not configured")
		return
	}
	limit, ok := limitParam(rw, r, 20)
	if !ok {
		return
	}
	category := chi.URLParam(r, "category")
	key := cache.GenerateKey("pick-history", map[string]interface{}{"category": category, "limit": limit})
	picks, ok := h.history.Get(key)
	if !ok {
		var err error
		picks, err = h.deps.Runs.PickHistory(r.Context(), category, limit)
		if err != nil {
			rw.DatabaseError(err)
			return
		}
		h.history.Set(key, picks)
	}
	rw.List(picks, len(picks))
}

// ListSnapshots lists stored batches of a category, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Snapshots == nil {
		rw.ServiceUnavailable("snapshot store not configured")
		return
	}
	limit, ok := limitParam(rw, r, 50)
	if !ok {
		return
	}
	list, err := h.deps.Snapshots.List(r.Context(), chi.URLParam(r, "category"), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.List(list, len(list))
}

// CreateRun runs a posted batch.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		rw.BadRequest("request body too large or unreadable")
		return
	}
	var batch pipeline.Batch
	if err := json.Unmarshal(body, &batch); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&runRequest{Category: batch.Category, Observations: batch.Observations}); verr != nil {
		for _, fe := range verr.Errors() {
			logging.Debug().
				Str("field", fe.Field()).
				Str("tag", fe.Tag()).
				Str("param", fe.Param()).
				Interface("value", fe.Value()).
				Msg("Run request rejected")
		}
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if batch.AsOf.IsZero() {
		batch.AsOf = time.Now().UTC()
	}

	run, err := h.deps.Runner.Execute(r.Context(), batch)
	h.writeRun(rw, run, err)
}

// CollectRun collects a fresh batch for a configured category and runs it.
func (h *Handler) CollectRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	category := chi.URLParam(r, "category")
	keyword, ok := h.deps.Keywords[category]
	if !ok {
		rw.NotFound("category not configured")
		return
	}
	run, err := h.deps.Runner.RunCategory(r.Context(), category, keyword)
	h.writeRun(rw, run, err)
}

// ReplaySnapshot re-runs a stored batch.
func (h *Handler) ReplaySnapshot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	run, err := h.deps.Runner.Replay(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, snapshot.ErrNotFound) {
		rw.NotFound("snapshot not found")
		return
	}
	h.writeRun(rw, run, err)
}

func (h *Handler) writeRun(rw *ResponseWriter, run *pipeline.Run, err error) {
	var insufficient *selection.InsufficientCandidatesError
	var invalid *validation.RequestValidationError
	switch {
	case errors.As(err, &insufficient):
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeInsufficientCandidate, err.Error(),
			map[string]int{"pool": insufficient.Pool, "target": insufficient.Target})
	case errors.As(err, &invalid):
		rw.ValidationError(err.Error(), invalid.ToAPIError().Details)
	case err != nil:
		rw.InternalError("run failed", err)
	default:
		h.InvalidateReads()
		rw.Created(run)
	}
}

// limitParam parses ?limit=, answering 400 itself when it is invalid.
func limitParam(rw *ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 500 {
		rw.BadRequest("limit must be between 1 and 500")
		return 0, false
	}
	return n, true
}
