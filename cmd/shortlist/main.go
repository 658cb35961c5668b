// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

// Package main is the shortlist command.
//
// Shortlist picks a category's best products from marketplace observations,
// merges the picks with community recommendations, and records each run.
//
// # Commands
//
//	shortlist run --input batch.json     # run one batch and print the result
//	shortlist replay --id <snapshot-id>  # re-run a stored input batch
//	shortlist serve                      # HTTP API, scheduler and snapshot GC
//
// # Configuration
//
// Settings are layered, highest priority first:
//   - Environment variables prefixed with SHORTLIST_ (a .env file is read first)
//   - The YAML file named by --config or SHORTLIST_CONFIG
//   - Built-in defaults
//
// # Signal Handling
//
// serve stops on SIGINT or SIGTERM: the HTTP server drains in-flight
// requests, the scheduler finishes its current category, and the stores
// are closed.
package main

import (
	"os"

	"github.com/tomtom215/shortlist/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
