// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package middleware provides the HTTP middleware shared by the API router.

All middleware uses the chi signature func(http.Handler) http.Handler:

  - RequestID: accepts or generates X-Request-ID and puts it on the context
    and the request logger
  - Metrics: Prometheus request counts, durations and in-flight gauge,
    labeled by chi route pattern
  - AccessLog: one zerolog line per request

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.AccessLog)
*/
package middleware
