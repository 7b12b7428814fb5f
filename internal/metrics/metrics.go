// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassDuration tracks end-to-end pass latency by pass kind.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fm_pass_duration_seconds",
			Help:    "Duration of scoring and gradient passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // "score", "gradient"
	)

	// SamplesScored counts samples that received a prediction.
	SamplesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_samples_scored_total",
			Help: "Total number of samples scored",
		},
	)

	// GradientRows counts emitted (sample, feature) gradient rows.
	GradientRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_gradient_rows_total",
			Help: "Total number of gradient rows emitted",
		},
	)

	// UnmatchedFeatures counts feature rows whose id was absent from a
	// parameter table, by join policy.
	UnmatchedFeatures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_unmatched_features_total",
			Help: "Total number of feature rows with no parameter table entry",
		},
		[]string{"policy"}, // "inner", "outer_init"
	)

	// SyntheticInits counts Gaussian parameter draws made under the training
	// join policy, by parameter kind.
	SyntheticInits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_synthetic_inits_total",
			Help: "Total number of on-demand Gaussian parameter initializations",
		},
		[]string{"param"}, // "weight", "vector"
	)
)
