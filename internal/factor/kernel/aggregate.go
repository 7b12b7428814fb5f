// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"

	"github.com/factorstream/factorstream/internal/dataset"
)

// sampleSums holds the per-sample aggregates the FM closed-form expansion
// needs. All three are plain sums over the sample's contributions, so the
// reduction is associative and commutative and safe to compute partition-wise
// in any order.
type sampleSums struct {
	// wixi is sum_i w_i * x_i.
	wixi float64

	// vfxi[f] is sum_i v_i[f] * x_i.
	vfxi []float64

	// vi2xi2 is sum_i ||v_i||^2 * x_i^2.
	vi2xi2 float64
}

// aggregate reduces contributions into per-sample sums keyed by sample id.
func (p *Pass) aggregate(ctx context.Context, contribs *dataset.Collection[contribution]) (map[int64]sampleSums, error) {
	k := p.model.K

	return dataset.ReduceByKey(ctx, contribs,
		func(c contribution) int64 { return c.sampleID },
		func() sampleSums {
			return sampleSums{vfxi: make([]float64, k)}
		},
		func(a sampleSums, c contribution) sampleSums {
			a.wixi += c.weight * c.value

			var norm2 float64
			for f, vf := range c.vec {
				a.vfxi[f] += vf * c.value
				norm2 += vf * vf
			}
			a.vi2xi2 += norm2 * c.value * c.value
			return a
		},
		func(a, b sampleSums) sampleSums {
			a.wixi += b.wixi
			for f := range a.vfxi {
				a.vfxi[f] += b.vfxi[f]
			}
			a.vi2xi2 += b.vi2xi2
			return a
		},
	)
}
