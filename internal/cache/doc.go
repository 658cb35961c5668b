// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package cache is a small typed TTL cache for API read results.

Entries expire lazily on Get and are swept when the cache is full. Every
lookup is counted in shortlist_cache_requests_total under the cache's name.

	picks := cache.New[[]store.PickCount]("pick-history", 30*time.Second, 256)
	key := cache.GenerateKey("pick-history", params)
	if v, ok := picks.Get(key); ok {
	    return v
	}
	picks.Set(key, computed)

Clear drops everything, which callers do after writing new runs.
*/
package cache
