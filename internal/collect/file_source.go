// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package collect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shortlist/internal/selection"
)

// File layout under a sources directory:
//
//	<dir>/<category>/observations/<platform>.json  []selection.Observation
//	<dir>/<category>/mentions.json                 []selection.Mention
//	<dir>/<category>/signals.json                  map[name]selection.Signals

// PlatformFile reads one platform's observations.
type PlatformFile struct {
	dir      string
	platform string
}

// NewPlatformFile creates an ObservationSource for platform under dir.
func NewPlatformFile(dir, platform string) *PlatformFile {
	return &PlatformFile{dir: dir, platform: platform}
}

// Name implements Source.
func (f *PlatformFile) Name() string { return f.platform }

// FetchObservations implements ObservationSource. Observations without a
// platform are attributed to this file's platform.
func (f *PlatformFile) FetchObservations(ctx context.Context, q Query) ([]selection.Observation, error) {
	var out []selection.Observation
	if err := readJSON(ctx, filepath.Join(f.dir, q.Category, "observations", f.platform+".json"), &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Platform == "" {
			out[i].Platform = f.platform
		}
	}
	return out, nil
}

// MentionFile reads extracted mentions.
type MentionFile struct {
	dir string
}

// NewMentionFile creates a MentionSource under dir.
func NewMentionFile(dir string) *MentionFile {
	return &MentionFile{dir: dir}
}

// Name implements Source.
func (f *MentionFile) Name() string { return "mentions" }

// FetchMentions implements MentionSource.
func (f *MentionFile) FetchMentions(ctx context.Context, q Query) ([]selection.Mention, error) {
	var out []selection.Mention
	if err := readJSON(ctx, filepath.Join(f.dir, q.Category, "mentions.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SignalFile reads per-product signals.
type SignalFile struct {
	dir string
}

// NewSignalFile creates a SignalSource under dir.
func NewSignalFile(dir string) *SignalFile {
	return &SignalFile{dir: dir}
}

// Name implements Source.
func (f *SignalFile) Name() string { return "signals" }

// FetchSignals implements SignalSource.
func (f *SignalFile) FetchSignals(ctx context.Context, q Query) (map[string]selection.Signals, error) {
	out := map[string]selection.Signals{}
	if err := readJSON(ctx, filepath.Join(f.dir, q.Category, "signals.json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readJSON(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is built from configured directories
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.UnmarshalContext(ctx, data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var (
	_ ObservationSource = (*PlatformFile)(nil)
	_ MentionSource     = (*MentionFile)(nil)
	_ SignalSource      = (*SignalFile)(nil)
)
