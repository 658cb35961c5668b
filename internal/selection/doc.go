// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package selection holds the shared data model of the product selection engine.

A run turns per-platform ranking observations into a validated Top-N
(the "A" result), independently ranks organically mentioned products (the
"B" result), and merges both into the published list:

	observations -> aggregate -> score -> slots -> checks   (SelectionResult)
	mentions     -> organic                                 (RecommendationResult)
	both         -> merge                                   (FinalSelectionResult)

Each stage lives in its own subpackage and receives an immutable Policy
value. Stages never read the clock or global state; the run date is
stamped by the pipeline on the output record only.

Subpackages:
  - identity: product-name normalization and same-product matching
  - aggregate: cross-platform candidate pool construction
  - pricetier: budget/mid/premium classification from observed prices
  - scoring: commercial_value and signal_richness strategies
  - slots: diversity-constrained Top-N selection
  - checks: business-rule findings and brand-diversity repair
  - organic: recommendation counting over text mentions
  - merge: the final case-table merge
*/
package selection
