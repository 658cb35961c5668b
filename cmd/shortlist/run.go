// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shortlist/internal/collect"
	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/pipeline"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		input    string
		category string
		collectF bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch and print the result as JSON",
		Long: `Run one selection over a batch and print the run record.

The batch comes from --input (a JSON file, or - for stdin), or with
--collect from the configured source files of --category.

Examples:
  shortlist run --input batch.json
  cat batch.json | shortlist run --input - --category robot-vacuum
  shortlist run --collect --category robot-vacuum --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" && !collectF {
				return errors.New("one of --input or --collect is required")
			}
			if collectF && category == "" {
				return errors.New("--collect requires --category")
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := logging.Logger()

			a, err := newApp(ctx, cfg, logger, appOptions{persist: save, collect: collectF})
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					logger.Error().Err(err).Msg("Error closing stores")
				}
			}()

			var run *pipeline.Run
			if collectF {
				keyword := cfg.Keywords()[category]
				if keyword == "" {
					keyword = category
				}
				if !save {
					batch, err := a.collector.Collect(ctx, collect.Query{Category: category, Keyword: keyword})
					if err != nil {
						return err
					}
					run, err = a.engine.Run(ctx, batch)
					if err != nil {
						return err
					}
				} else if run, err = a.runner.RunCategory(ctx, category, keyword); err != nil {
					return err
				}
			} else {
				batch, err := readBatch(cmd.InOrStdin(), input)
				if err != nil {
					return err
				}
				if category != "" {
					batch.Category = category
				}
				if batch.AsOf.IsZero() {
					batch.AsOf = time.Now().UTC()
				}
				if save {
					run, err = a.runner.Execute(ctx, batch)
				} else {
					run, err = a.engine.Run(ctx, batch)
				}
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Batch JSON file, or - for stdin")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category key; overrides the batch's category")
	cmd.Flags().BoolVar(&collectF, "collect", false, "Collect the batch from the configured source files")
	cmd.Flags().BoolVar(&save, "save", false, "Store the snapshot and the run")
	return cmd
}

func readBatch(stdin io.Reader, path string) (pipeline.Batch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("read batch: %w", err)
	}
	var batch pipeline.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return pipeline.Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
