// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package api serves runs, policies and snapshots over HTTP with chi.

Every response uses the APIResponse envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Endpoints:

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /metrics
	GET  /api/v1/categories
	GET  /api/v1/categories/{category}/policy
	GET  /api/v1/categories/{category}/latest
	GET  /api/v1/categories/{category}/history?limit=
	GET  /api/v1/categories/{category}/snapshots?limit=
	POST /api/v1/categories/{category}/runs        collect and run
	GET  /api/v1/runs?category=&limit=
	POST /api/v1/runs                              run a posted batch
	GET  /api/v1/runs/{id}
	POST /api/v1/snapshots/{id}/replay

Run endpoints answer 201 with the run, 422 INSUFFICIENT_CANDIDATES when
the pool cannot fill the slots, and 400 VALIDATION_FAILED for an invalid
body or policy. Failed selection checks are not errors; they travel in
the run's validation findings.
*/
package api
