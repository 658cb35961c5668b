// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shortlist/internal/config"
	"github.com/tomtom215/shortlist/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "shortlist",
		Short: "Select and merge product picks per category",
		Long: `Shortlist ranks the products a category's marketplaces agree on, picks a
target number of them, and merges those picks with organic community
recommendations into one final list.

Examples:
  shortlist run --input batch.json          # Run one batch, print the run
  shortlist run --input batch.json --save   # Also store snapshot and result
  shortlist replay --id 2f1c...             # Re-run a stored batch
  shortlist serve --config config.yaml      # Start the API server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.yaml (default: SHORTLIST_CONFIG or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Environment file loaded before configuration")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newReplayCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	return cmd
}

// loadConfig reads the env file, loads configuration and initializes the
// global logger from it.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg, err := config.LoadWithKoanf(flags.configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}
