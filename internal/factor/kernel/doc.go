// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package kernel implements the FM scoring and gradient pipeline over a
// partitioned dataset:
//
//	samples -> explode -> join (parameter tables) -> per-sample sums
//	        -> prediction, or per-(sample, feature) gradient rows
//
// The quadratic interaction term uses the closed-form expansion
//
//	0.5 * (sum_f (sum_i v_i[f]*x_i)^2 - sum_i ||v_i||^2 * x_i^2)
//
// which is linear in the number of feature occurrences rather than quadratic
// in the number of active features.
//
// All stages are pure functions over an immutable model snapshot; a pass
// performs no locking and no mutation of shared state.
package kernel
