// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package metrics defines the Prometheus collectors for pass-level
// observability: durations, row throughput, unmatched feature ids, and
// on-demand parameter initializations.
package metrics
