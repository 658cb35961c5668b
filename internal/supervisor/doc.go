// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package supervisor runs the long-lived parts of the server under suture v4.

	shortlist
	├── data-layer
	│   └── snapshot-gc
	├── pipeline-layer
	│   ├── scheduler
	│   └── event-log
	└── api-layer
	    └── http-server

Each layer restarts its own services with backoff, so a crashing scheduler
never takes the HTTP server down. Supervisor events are logged through
sutureslog into the zerolog stream.
*/
package supervisor
