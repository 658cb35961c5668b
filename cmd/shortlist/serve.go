// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shortlist/internal/api"
	"github.com/tomtom215/shortlist/internal/config"
	"github.com/tomtom215/shortlist/internal/events"
	"github.com/tomtom215/shortlist/internal/logging"
	"github.com/tomtom215/shortlist/internal/metrics"
	"github.com/tomtom215/shortlist/internal/supervisor"
	"github.com/tomtom215/shortlist/internal/supervisor/services"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), flags, cfg, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload category policies when the config file changes")
	return cmd
}

//nolint:gocyclo // Sequential setup steps
func serve(parent context.Context, flags *globalFlags, cfg *config.Config, watch bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.WithComponent("serve")
	logger.Info().
		Str("version", Version).
		Int("categories", len(cfg.Categories)).
		Str("duckdb_path", cfg.Storage.DuckDBPath).
		Str("snapshot_dir", cfg.Storage.SnapshotDir).
		Msg("Starting shortlist")
	metrics.AppInfo.WithLabelValues(Version, runtime.Version()).Set(1)

	a, err := newApp(ctx, cfg, logger, appOptions{persist: true, collect: true, events: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error().Err(err).Msg("Error closing stores")
		}
	}()

	if watch && flags.configPath != "" {
		err := config.WatchConfigFile(flags.configPath, func() {
			next, err := config.LoadWithKoanf(flags.configPath)
			if err != nil {
				logging.Warn().Err(err).Str("path", flags.configPath).Msg("Config reload failed")
				return
			}
			a.reload(next)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Config file watch disabled")
		}
	}

	deps := api.Deps{
		Runner:   a.runner,
		Policies: a.engine,
		Runs:     a.runs,
		Keywords: cfg.Keywords(),
		Version:  Version,
		CacheTTL: cfg.Server.CacheTTL,
	}
	if a.snapshots != nil {
		deps.Snapshots = a.snapshots
	}
	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimit
	handler := api.NewHandler(deps)
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig), logger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if a.snapshots != nil {
		tree.AddDataService(services.NewSnapshotGCService(a.snapshots, 10*time.Minute, logger))
	}
	// Scheduled runs bypass the API, so their events invalidate its read cache.
	tree.AddPipelineService(services.NewEventLogService(a.bus, logger, func(*events.RunCompleted) {
		handler.InvalidateReads()
	}))
	if cfg.Schedule.Enabled {
		tree.AddPipelineService(services.NewSchedulerService(a.runner, services.SchedulerConfig{
			Interval:   cfg.Schedule.Interval,
			RunOnStart: cfg.Schedule.RunOnStart,
			Keywords:   cfg.Keywords(),
		}, logger))
		logger.Info().Dur("interval", cfg.Schedule.Interval).Msg("Scheduler added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown requested, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	logger.Info().Msg("Shortlist stopped")
	return nil
}
