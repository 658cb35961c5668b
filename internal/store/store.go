// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package store persists completed runs in DuckDB.
//
// Each run is kept whole as JSON in selection_runs and flattened into
// final_picks and validation_findings for SQL queries across runs.
// Timestamps are stored as UTC TIMESTAMP so no extension is required.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/pipeline"
)

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Record is a stored run.
type Record struct {
	Run       *pipeline.Run `json:"run"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary is one row of a run listing.
type Summary struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Keyword    string    `json:"keyword"`
	AsOf       time.Time `json:"as_of"`
	Strategy   string    `json:"strategy"`
	MergeCase  string    `json:"merge_case"`
	PoolSize   int       `json:"pool_size"`
	Passed     bool      `json:"passed"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PickCount is how often a product made the final list of a category.
type PickCount struct {
	Name     string    `json:"name"`
	Picks    int       `json:"picks"`
	BestRank int       `json:"best_rank"`
	LastSeen time.Time `json:"last_seen"`
}

// Store is a DuckDB-backed run store.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// Open opens the database at path, or an in-memory database when path is
// empty, and creates the tables.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	// Extensions are never needed; keep DuckDB from reaching the network.
	conn, err := sql.Open("duckdb", path+"?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := New(conn, logger)
	if err := s.CreateTables(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}
	s.logger.Info().Str("path", path).Msg("Run store opened")
	return s, nil
}

// New wraps an open database. The caller must call CreateTables.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger.With().Str("component", "store").Logger()}
}

// CreateTables creates the schema if it does not exist.
func (s *Store) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS selection_runs (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			keyword TEXT NOT NULL,
			as_of TIMESTAMP NOT NULL,
			strategy TEXT NOT NULL,
			merge_case TEXT NOT NULL,
			pool_size INTEGER NOT NULL,
			passed BOOLEAN NOT NULL,
			snapshot_id TEXT,
			run TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS final_picks (
			run_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			brand TEXT,
			price BIGINT,
			source TEXT NOT NULL,
			match_method TEXT,
			slot TEXT,
			PRIMARY KEY (run_id, rank)
		);

		CREATE TABLE IF NOT EXISTS validation_findings (
			run_id TEXT NOT NULL,
			check_name TEXT NOT NULL,
			passed BOOLEAN NOT NULL,
			detail TEXT,
			PRIMARY KEY (run_id, check_name)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_category_as_of ON selection_runs(category, as_of);
		CREATE INDEX IF NOT EXISTS idx_picks_name ON final_picks(name)
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	s.logger.Debug().Msg("Run tables created/verified")
	return nil
}

// SaveRun stores run and its flattened picks and findings in one
// transaction. Saving the same ID twice replaces the earlier record.
func (s *Store) SaveRun(ctx context.Context, run *pipeline.Run) (err error) {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "selection_runs", time.Since(start), err) }()

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is returned
		}
	}()

	for _, table := range []string{"final_picks", "validation_findings"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", run.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM selection_runs WHERE id = ?", run.ID); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO selection_runs
			(id, category, keyword, as_of, strategy, merge_case, pool_size, passed, snapshot_id, run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Category,
		run.Keyword,
		run.AsOf.UTC(),
		run.Selection.Strategy,
		string(run.Final.MergeCase),
		run.Selection.CandidatePoolSize,
		run.Selection.Passed(),
		nullString(run.SnapshotID),
		string(payload),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range run.Final.Final {
		p := &run.Final.Final[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO final_picks (run_id, rank, name, brand, price, source, match_method, slot)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, p.Rank, p.Name, p.Brand, p.Price, string(p.Source), p.MatchMethod, p.Label)
		if err != nil {
			return fmt.Errorf("failed to insert pick %d: %w", p.Rank, err)
		}
	}

	for _, f := range run.Selection.Validation {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO validation_findings (run_id, check_name, passed, detail)
			VALUES (?, ?, ?, ?)`,
			run.ID, f.CheckName, f.Passed, f.Detail)
		if err != nil {
			return fmt.Errorf("failed to insert finding %s: %w", f.CheckName, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug().Str("run_id", run.ID).Str("category", run.Category).Msg("Run stored")
	return nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (rec *Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "selection_runs", time.Since(start), err) }()

	row := s.db.QueryRowContext(ctx, "SELECT run, created_at FROM selection_runs WHERE id = ?", id)
	return scanRecord(row, id)
}

// LatestRun loads the most recent run of category by as-of date, then by
// creation time.
func (s *Store) LatestRun(ctx context.Context, category string) (rec *Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "selection_runs", time.Since(start), err) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT run, created_at FROM selection_runs
		WHERE category = ?
		ORDER BY as_of DESC, created_at DESC
		LIMIT 1`, category)
	return scanRecord(row, category)
}

// ListRuns returns up to limit run summaries, newest first. An empty
// category lists every category.
func (s *Store) ListRuns(ctx context.Context, category string, limit int) (out []Summary, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "selection_runs", time.Since(start), err) }()

	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, category, keyword, as_of, strategy, merge_case, pool_size, passed, snapshot_id, created_at
		FROM selection_runs`
	args := []interface{}{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY as_of DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out = []Summary{}
	for rows.Next() {
		var sum Summary
		var snapshot sql.NullString
		if err := rows.Scan(&sum.ID, &sum.Category, &sum.Keyword, &sum.AsOf, &sum.Strategy,
			&sum.MergeCase, &sum.PoolSize, &sum.Passed, &snapshot, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.SnapshotID = snapshot.String
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}

// PickHistory counts how often each product made the final list of
// category, most picked first.
func (s *Store) PickHistory(ctx context.Context, category string, limit int) (out []PickCount, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "final_picks", time.Since(start), err) }()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, COUNT(*) AS picks, MIN(p.rank) AS best_rank, MAX(r.as_of) AS last_seen
		FROM final_picks p
		JOIN selection_runs r ON r.id = p.run_id
		WHERE r.category = ?
		GROUP BY p.name
		ORDER BY picks DESC, best_rank ASC, p.name ASC
		LIMIT ?`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pick history: %w", err)
	}
	defer rows.Close()

	out = []PickCount{}
	for rows.Next() {
		var pc PickCount
		if err := rows.Scan(&pc.Name, &pc.Picks, &pc.BestRank, &pc.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan pick history: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pick history: %w", err)
	}
	return out, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row, key string) (*Record, error) {
	var payload string
	var rec Record
	if err := row.Scan(&payload, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	rec.Run = &pipeline.Run{}
	if err := json.Unmarshal([]byte(payload), rec.Run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func closeQuietly(db *sql.DB) {
	_ = db.Close() //nolint:errcheck // already failing
}
