// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package config

import (
	"time"

	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/selection"
)

// Config is the complete service configuration.
type Config struct {
	Logging    logging.Config   `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Schedule   ScheduleConfig   `koanf:"schedule"`
	Sources    SourcesConfig    `koanf:"sources"`
	Categories []CategoryConfig `koanf:"categories" validate:"dive"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
	// CacheTTL bounds the age of cached latest-run and history reads; 0 disables.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// StorageConfig locates the result store and the snapshot store.
type StorageConfig struct {
	// DuckDBPath is the result database file. Empty keeps results in memory.
	DuckDBPath string `koanf:"duckdb_path"`

	// SnapshotDir is the badger directory for input batches. Empty disables snapshots.
	SnapshotDir string `koanf:"snapshot_dir"`
}

// ScheduleConfig controls periodic selection runs.
type ScheduleConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Interval   time.Duration `koanf:"interval"`
	RunOnStart bool          `koanf:"run_on_start"`
}

// SourcesConfig configures the file-backed sources and their circuit breakers.
type SourcesConfig struct {
	// Dir holds <category>/observations/<platform>.json, signals.json and
	// mentions.json.
	Dir       string        `koanf:"dir"`
	Platforms []string      `koanf:"platforms" validate:"min=1,dive,required"`
	Timeout   time.Duration `koanf:"timeout"`

	// BreakerMaxFailures consecutive failures open a source's breaker.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"min=1"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// CategoryConfig is one category to select for.
type CategoryConfig struct {
	Keyword string           `koanf:"keyword" validate:"required"`
	Policy  selection.Policy `koanf:"policy"`
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	log := logging.DefaultConfig()
	log.Output = nil
	return &Config{
		Logging: log,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			CacheTTL:        30 * time.Second,
		},
		Storage: StorageConfig{
			DuckDBPath:  "data/shortlist.duckdb",
			SnapshotDir: "data/snapshots",
		},
		Schedule: ScheduleConfig{
			Enabled:    false,
			Interval:   24 * time.Hour,
			RunOnStart: false,
		},
		Sources: SourcesConfig{
			Dir:                "data/sources",
			Platforms:          []string{"naver", "danawa", "coupang"},
			Timeout:            30 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     time.Minute,
		},
	}
}

// Policies returns the category policies keyed by category.
func (c *Config) Policies() map[string]selection.Policy {
	out := make(map[string]selection.Policy, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.Policy.Category] = cat.Policy.Clone()
	}
	return out
}

// Category returns the configuration of one category.
func (c *Config) Category(key string) (CategoryConfig, bool) {
	for _, cat := range c.Categories {
		if cat.Policy.Category == key {
			return cat, true
		}
	}
	return CategoryConfig{}, false
}

// Keywords returns the search keyword of every category, keyed by category.
func (c *Config) Keywords() map[string]string {
	out := make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.Policy.Category] = cat.Keyword
	}
	return out
}
