// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factorstream/factorstream/internal/logging"
)

// newGradCmd creates the "factorstream grad" subcommand.
func newGradCmd(configPath *string) *cobra.Command {
	var (
		modelPath  string
		inputPath  string
		outputPath string
		initialSd  float64
	)

	cmd := &cobra.Command{
		Use:   "grad",
		Short: "Compute gradient rows for a labeled sample batch",
		Long: "Read labeled JSONL samples and emit one gradient row per\n" +
			"(sample, active feature) pair under the outer join policy. Feature ids\n" +
			"missing from the parameter tables receive fresh zero-mean Gaussian\n" +
			"parameters with the given standard deviation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}

			pass, codec, samples, err := preparePass(cfg, modelPath, inputPath)
			if err != nil {
				return err
			}

			rows, err := pass.Gradients(cmd.Context(), samples, initialSd)
			if err != nil {
				return fmt.Errorf("gradient pass: %w", err)
			}

			out, closeOut, err := openOutput(outputPath)
			if err != nil {
				return err
			}
			defer closeOut()

			if err := codec.WriteGradients(out, rows); err != nil {
				return err
			}

			logging.Info().
				Int("samples", len(samples)).
				Int("rows", len(rows)).
				Msg("gradient pass complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "path to model snapshot (JSON)")
	cmd.Flags().StringVar(&inputPath, "input", "-", "path to JSONL samples, - for stdin")
	cmd.Flags().StringVar(&outputPath, "output", "-", "path for JSONL output, - for stdout")
	cmd.Flags().Float64Var(&initialSd, "init-sd", 0.01, "standard deviation for on-demand parameter initialization (> 0)")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
