// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/factorstream/factorstream/internal/config"
	"github.com/factorstream/factorstream/internal/factor"
	"github.com/factorstream/factorstream/internal/factor/kernel"
	"github.com/factorstream/factorstream/internal/ingest"
	"github.com/factorstream/factorstream/internal/logging"
)

// newScoreCmd creates the "factorstream score" subcommand.
func newScoreCmd(configPath *string) *cobra.Command {
	var (
		modelPath  string
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a sample batch against a model snapshot",
		Long: "Read JSONL samples, compute one clamped FM prediction per sample\n" +
			"under the inner join policy, and write the samples back out with the\n" +
			"prediction column added.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}

			pass, codec, samples, err := preparePass(cfg, modelPath, inputPath)
			if err != nil {
				return err
			}

			preds, err := pass.Score(cmd.Context(), samples)
			if err != nil {
				return fmt.Errorf("scoring pass: %w", err)
			}

			out, closeOut, err := openOutput(outputPath)
			if err != nil {
				return err
			}
			defer closeOut()

			if err := codec.WritePredictions(out, preds); err != nil {
				return err
			}

			logging.Info().Int("samples", len(preds)).Msg("scoring complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "path to model snapshot (JSON)")
	cmd.Flags().StringVar(&inputPath, "input", "-", "path to JSONL samples, - for stdin")
	cmd.Flags().StringVar(&outputPath, "output", "-", "path for JSONL output, - for stdout")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

// preparePass loads the model snapshot and the sample batch and builds a
// kernel pass from the configuration.
func preparePass(cfg *config.Config, modelPath, inputPath string) (*kernel.Pass, *ingest.Codec, []factor.Sample, error) {
	model, err := factor.LoadModel(modelPath)
	if err != nil {
		return nil, nil, nil, err
	}

	pass, err := kernel.NewPass(model, kernel.Config{
		MinLabel:   cfg.Labels.Min,
		MaxLabel:   cfg.Labels.Max,
		Partitions: cfg.Engine.Partitions,
		Seed:       cfg.Engine.Seed,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	in, closeIn, err := openInput(inputPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer closeIn()

	codec := ingest.NewCodec(cfg.Columns)
	samples, err := codec.ReadSamples(in)
	if err != nil {
		return nil, nil, nil, err
	}

	return pass, codec, samples, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
