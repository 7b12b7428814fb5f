// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/factorstream/factorstream/internal/factor"
	"github.com/factorstream/factorstream/internal/logging"
	"github.com/factorstream/factorstream/internal/metrics"
)

// Score computes one clamped prediction per input sample under the inner join
// policy. Samples whose feature rows are all dropped (or empty to begin with)
// default to the clamped model bias; no sample is ever omitted.
func (p *Pass) Score(ctx context.Context, samples []factor.Sample) ([]factor.Prediction, error) {
	start := time.Now()
	passID := uuid.NewString()

	batch, err := NewBatch(samples)
	if err != nil {
		return nil, err
	}

	sums, err := p.sumsFor(ctx, batch, JoinInner, 0)
	if err != nil {
		return nil, err
	}

	// Re-attach predictions to the materialized batch: same assigned ids as
	// the join path read.
	out := make([]factor.Prediction, batch.Len())
	for i, s := range batch.Samples() {
		out[i] = factor.Prediction{
			Sample: s,
			Value:  p.predict(sums, s.ID),
		}
	}

	metrics.SamplesScored.Add(float64(len(out)))
	metrics.PassDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())

	logging.Debug().
		Str("pass_id", passID).
		Int("samples", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("scoring pass complete")

	return out, nil
}

// sumsFor runs explode -> join -> aggregate for the batch.
func (p *Pass) sumsFor(ctx context.Context, batch *Batch, policy JoinPolicy, sd float64) (map[int64]sampleSums, error) {
	rows, err := batch.explode(ctx, p.cfg.Partitions)
	if err != nil {
		return nil, err
	}

	contribs, err := p.join(ctx, rows, policy, sd)
	if err != nil {
		return nil, err
	}

	return p.aggregate(ctx, contribs)
}

// predict combines bias, linear term, and interaction term for one sample and
// clamps the result. A sample with no aggregate row degenerates to the bias.
func (p *Pass) predict(sums map[int64]sampleSums, sampleID int64) float64 {
	s, ok := sums[sampleID]
	if !ok {
		return clamp(p.model.Bias, p.cfg.MinLabel, p.cfg.MaxLabel)
	}

	var sq float64
	for _, vf := range s.vfxi {
		sq += vf * vf
	}
	interaction := 0.5 * (sq - s.vi2xi2)

	raw := p.model.Bias + s.wixi + interaction
	return clamp(raw, p.cfg.MinLabel, p.cfg.MaxLabel)
}
