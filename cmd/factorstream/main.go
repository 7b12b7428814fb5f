// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Command factorstream runs FM scoring and gradient passes over JSONL sample
// batches against a JSON model snapshot. It is the external-driver shell
// around the kernel; the optimizer consuming the gradient rows lives outside
// this repository.
package main

import (
	"os"

	"github.com/factorstream/factorstream/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Err(err).Msg("command failed")
		os.Exit(1)
	}
}
