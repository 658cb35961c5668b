// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shortlist/internal/logging"
)

func newReplayCmd(flags *globalFlags) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run a stored input batch under the current policies",
		Long: `Load a snapshot saved by an earlier run and run it again. The new run is
stored and linked to the same snapshot.

Examples:
  shortlist replay --id 0b6f6a1e-5d0c-4f4e-9a7e-3c1d2b8e9f00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("--id is required")
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Storage.SnapshotDir == "" {
				return errors.New("snapshots are disabled (storage.snapshot_dir is empty)")
			}
			logger := logging.Logger()

			a, err := newApp(cmd.Context(), cfg, logger, appOptions{persist: true})
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					logger.Error().Err(err).Msg("Error closing stores")
				}
			}()

			run, err := a.runner.Replay(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Snapshot ID to replay")
	return cmd
}
