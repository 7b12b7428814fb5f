// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"
	"math/rand"

	"github.com/factorstream/factorstream/internal/dataset"
	"github.com/factorstream/factorstream/internal/metrics"
)

// JoinPolicy selects how feature rows with ids absent from the parameter
// tables are handled.
type JoinPolicy int

const (
	// JoinInner drops unmatched feature rows from the contribution set. The
	// sample itself survives; if all of its rows are dropped its score
	// defaults to the model bias.
	JoinInner JoinPolicy = iota

	// JoinOuterInit keeps unmatched rows and synthesizes the missing
	// parameters from a zero-mean Gaussian. Draws are made independently per
	// occurrence and are never persisted; persistence is the optimizer's
	// responsibility.
	JoinOuterInit
)

// String returns a human-readable policy name.
func (p JoinPolicy) String() string {
	switch p {
	case JoinInner:
		return "inner"
	case JoinOuterInit:
		return "outer_init"
	default:
		return "unknown"
	}
}

// contribution is a feature row matched with its parameters: the per-feature
// input to the aggregation and gradient stages.
type contribution struct {
	sampleID  int64
	featureID int64
	value     float64
	weight    float64
	vec       []float64
}

// join matches exploded rows against the model's strength and interaction
// tables. Under JoinOuterInit, sd is the standard deviation for synthesized
// parameters; each partition uses its own deterministically-seeded RNG so the
// transformation stays free of shared state.
func (p *Pass) join(ctx context.Context, rows *dataset.Collection[featureRow], policy JoinPolicy, sd float64) (*dataset.Collection[contribution], error) {
	model := p.model

	if policy == JoinInner {
		return dataset.FlatMap(ctx, rows, func(r featureRow) ([]contribution, error) {
			w, vec, ok := model.Lookup(r.featureID)
			if !ok {
				metrics.UnmatchedFeatures.WithLabelValues(policy.String()).Inc()
				return nil, nil
			}
			return []contribution{{
				sampleID:  r.sampleID,
				featureID: r.featureID,
				value:     r.value,
				weight:    w,
				vec:       vec,
			}}, nil
		})
	}

	seed := p.cfg.Seed
	return dataset.MapPartitions(ctx, rows, func(partition int, part []featureRow) ([]contribution, error) {
		//nolint:gosec // G404: math/rand is acceptable for parameter initialization (not security)
		rng := rand.New(rand.NewSource(seed + int64(partition)))

		out := make([]contribution, len(part))
		for i, r := range part {
			c := contribution{
				sampleID:  r.sampleID,
				featureID: r.featureID,
				value:     r.value,
			}

			w, okW := model.Strengths[r.featureID]
			if okW {
				c.weight = w
			} else {
				c.weight = rng.NormFloat64() * sd
				metrics.SyntheticInits.WithLabelValues("weight").Inc()
			}

			vec, okV := model.Vectors[r.featureID]
			if okV {
				c.vec = vec
			} else {
				fresh := make([]float64, model.K)
				for f := range fresh {
					fresh[f] = rng.NormFloat64() * sd
				}
				c.vec = fresh
				metrics.SyntheticInits.WithLabelValues("vector").Inc()
			}

			if !okW || !okV {
				metrics.UnmatchedFeatures.WithLabelValues(policy.String()).Inc()
			}
			out[i] = c
		}
		return out, nil
	})
}
