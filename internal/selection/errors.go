// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCandidates is matched by *InsufficientCandidatesError.
	ErrInsufficientCandidates = errors.New("insufficient candidates")

	// ErrNoOrganicData marks an empty organic result. Non-fatal: the merge
	// degrades to the selection result alone.
	ErrNoOrganicData = errors.New("no organic recommendation data")

	// ErrValidationFailed marks a selection with failing checks. Non-fatal:
	// the findings travel with the result for a human or rule to act on.
	ErrValidationFailed = errors.New("selection validation failed")
)

// InsufficientCandidatesError aborts a run when the pool cannot fill the target.
type InsufficientCandidatesError struct {
	Category string
	Pool     int
	Target   int
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("insufficient candidates for %q: pool has %d, need %d", e.Category, e.Pool, e.Target)
}

// Is reports whether target is ErrInsufficientCandidates.
func (e *InsufficientCandidatesError) Is(target error) bool {
	return target == ErrInsufficientCandidates
}

// ValidationFailedError describes failing checks of a completed selection.
type ValidationFailedError struct {
	Category string
	Checks   []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("selection for %q failed checks %v", e.Category, e.Checks)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidationError returns a *ValidationFailedError when any check failed, else nil.
func (r *SelectionResult) ValidationError() error {
	failed := r.FailedChecks()
	if len(failed) == 0 {
		return nil
	}
	return &ValidationFailedError{Category: r.Category, Checks: failed}
}
