// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/factorstream/factorstream/internal/config"
	"github.com/factorstream/factorstream/internal/logging"
)

// newRootCmd creates the root command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "factorstream",
		Short:         "Factorization Machines scoring and gradient passes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")

	cmd.AddCommand(
		newScoreCmd(&configPath),
		newGradCmd(&configPath),
	)

	return cmd
}

// setup loads configuration, initializes logging, and starts the optional
// metrics listener.
func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.Logging)

	if cfg.Metrics.Enabled {
		startMetricsListener(cfg.Metrics.Listen)
	}
	return cfg, nil
}

// startMetricsListener serves Prometheus exposition on addr in the
// background. A pass is a batch job; listener failures are logged, not fatal.
func startMetricsListener(addr string) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", addr).Msg("metrics listener starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Err(err).Msg("metrics listener stopped")
		}
	}()
}
