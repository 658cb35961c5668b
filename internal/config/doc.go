// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package config loads the service configuration.

# Configuration Sources

Sources are layered with koanf, later layers overriding earlier ones:
  - Struct defaults (defaultConfig)
  - A YAML file: the explicit path, SHORTLIST_CONFIG, or the first of
    DefaultConfigPaths that exists
  - SHORTLIST_-prefixed environment variables, mapped explicitly

# Categories

Each entry of categories carries a search keyword and a selection policy.
Policy fields left out of the file keep the values of
selection.DefaultPolicy:

	categories:
	  - keyword: 로봇청소기
	    policy:
	      category: robot-vacuum
	      price_spread_ratio: 1.5

# Environment Variables

  - SHORTLIST_LOG_LEVEL, SHORTLIST_LOG_FORMAT, SHORTLIST_LOG_CALLER
  - SHORTLIST_HTTP_HOST, SHORTLIST_HTTP_PORT, SHORTLIST_CORS_ORIGINS,
    SHORTLIST_RATE_LIMIT
  - SHORTLIST_DUCKDB_PATH, SHORTLIST_SNAPSHOT_DIR
  - SHORTLIST_SCHEDULE_ENABLED, SHORTLIST_SCHEDULE_INTERVAL,
    SHORTLIST_SCHEDULE_RUN_ON_START
  - SHORTLIST_SOURCES_DIR, SHORTLIST_SOURCES_TIMEOUT,
    SHORTLIST_BREAKER_MAX_FAILURES, SHORTLIST_BREAKER_TIMEOUT
*/
package config
