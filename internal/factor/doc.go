// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package factor defines the data model shared by the scoring and gradient
// pipeline: sparse feature vectors, samples, and immutable model snapshots
// (global bias, per-feature linear weights, per-feature latent vectors).
//
// A Model is a read-only snapshot for the duration of a pass. The external
// optimizer owns the parameter tables and swaps in a new snapshot between
// passes; nothing in this repository mutates a snapshot after construction.
package factor
