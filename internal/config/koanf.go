// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/shortlist/internal/selection"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"shortlist.yaml",
	"shortlist.yml",
	"/etc/shortlist/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "SHORTLIST_CONFIG"

// EnvPrefix prefixes every environment variable read by LoadWithKoanf.
const EnvPrefix = "SHORTLIST_"

// sliceConfigPaths are the keys whose env values are comma-separated lists.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"sources.platforms",
}

// envMappings maps lowercased variable names, prefix removed, to config paths.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit":            "server.rate_limit",
	"api_cache_ttl":         "server.cache_ttl",

	"duckdb_path":  "storage.duckdb_path",
	"snapshot_dir": "storage.snapshot_dir",

	"schedule_enabled":      "schedule.enabled",
	"schedule_interval":     "schedule.interval",
	"schedule_run_on_start": "schedule.run_on_start",

	"sources_dir":          "sources.dir",
	"sources_platforms":    "sources.platforms",
	"sources_timeout":      "sources.timeout",
	"breaker_max_failures": "sources.breaker_max_failures",
	"breaker_timeout":      "sources.breaker_timeout",
}

// LoadWithKoanf loads defaults, then the YAML file at path (or the one
// findConfigFile locates when path is empty), then the environment.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	categories, err := loadCategories(k)
	if err != nil {
		return nil, err
	}
	cfg.Categories = categories

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadCategories unmarshals each category over selection.DefaultPolicy so
// that omitted policy fields keep their defaults.
func loadCategories(k *koanf.Koanf) ([]CategoryConfig, error) {
	items := k.Slices("categories")
	out := make([]CategoryConfig, 0, len(items))
	for i, item := range items {
		pk := koanf.New(".")
		if err := pk.Load(structs.Provider(selection.DefaultPolicy(""), "koanf"), nil); err != nil {
			return nil, fmt.Errorf("categories[%d]: failed to load policy defaults: %w", i, err)
		}
		if err := pk.Merge(item.Cut("policy")); err != nil {
			return nil, fmt.Errorf("categories[%d]: failed to merge policy: %w", i, err)
		}

		var policy selection.Policy
		if err := pk.Unmarshal("", &policy); err != nil {
			return nil, fmt.Errorf("categories[%d]: failed to unmarshal policy: %w", i, err)
		}
		out = append(out, CategoryConfig{Keyword: item.String("keyword"), Policy: policy})
	}
	return out, nil
}

// findConfigFile returns SHORTLIST_CONFIG when it exists, else the first
// existing default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps SHORTLIST_ variables to koanf paths. Unmapped
// variables return "" and are skipped.
//
// Examples:
//   - SHORTLIST_LOG_LEVEL -> logging.level
//   - SHORTLIST_HTTP_PORT -> server.port
//   - SHORTLIST_DUCKDB_PATH -> storage.duckdb_path
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for reloading under its own locking.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
