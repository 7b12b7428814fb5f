// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/factorstream/factorstream/internal/dataset"
	"github.com/factorstream/factorstream/internal/factor"
	"github.com/factorstream/factorstream/internal/logging"
	"github.com/factorstream/factorstream/internal/metrics"
)

var (
	// ErrInvalidStdDev indicates a non-positive initial standard deviation.
	// The whole operation fails before any row is processed.
	ErrInvalidStdDev = errors.New("initial standard deviation must be > 0")

	// ErrMissingLabel indicates a training sample without a label.
	ErrMissingLabel = errors.New("sample has no label")
)

// Gradients computes per-(sample, active feature) gradient rows under the
// outer join policy: feature ids absent from a parameter table receive fresh
// zero-mean Gaussian parameters with standard deviation initialSd, drawn
// independently per occurrence. The synthesized draw that entered a sample's
// aggregates is the same one its gradient row is computed against; the joined
// contribution set is materialized once and reused.
//
// Nothing is written back to the parameter tables; the rows are gradient
// signals for an external optimizer.
func (p *Pass) Gradients(ctx context.Context, samples []factor.Sample, initialSd float64) ([]factor.GradientRow, error) {
	if initialSd <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidStdDev, initialSd)
	}

	start := time.Now()
	passID := uuid.NewString()

	batch, err := NewBatch(samples)
	if err != nil {
		return nil, err
	}

	labels := make(map[int64]float64, batch.Len())
	for _, s := range batch.Samples() {
		if s.Label == nil {
			return nil, fmt.Errorf("%w: sample %d", ErrMissingLabel, s.ID)
		}
		labels[s.ID] = *s.Label
	}

	rows, err := batch.explode(ctx, p.cfg.Partitions)
	if err != nil {
		return nil, err
	}

	// Materialize the joined contributions once: the aggregation below and
	// the gradient computation must see identical synthesized parameters.
	contribs, err := p.join(ctx, rows, JoinOuterInit, initialSd)
	if err != nil {
		return nil, err
	}

	sums, err := p.aggregate(ctx, contribs)
	if err != nil {
		return nil, err
	}

	predictions := make(map[int64]float64, batch.Len())
	for _, s := range batch.Samples() {
		predictions[s.ID] = p.predict(sums, s.ID)
	}

	grads, err := dataset.Map(ctx, contribs, func(c contribution) (factor.GradientRow, error) {
		pred := predictions[c.sampleID]
		label := labels[c.sampleID]
		diff := pred - label

		vfxi := sums[c.sampleID].vfxi
		deltaVi := make([]float64, len(c.vec))
		for f, vf := range c.vec {
			// The FM trick: the interaction gradient needs only the shared
			// per-dimension sum, not the pairwise products.
			deltaVi[f] = c.value*vfxi[f] - vf*c.value*c.value
		}

		return factor.GradientRow{
			SampleID:   c.sampleID,
			FeatureID:  c.featureID,
			Label:      label,
			Prediction: pred,
			Loss:       diff * diff,
			DeltaWi:    c.value,
			DeltaVi:    deltaVi,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	out := grads.Collect()

	metrics.GradientRows.Add(float64(len(out)))
	metrics.PassDuration.WithLabelValues("gradient").Observe(time.Since(start).Seconds())

	logging.Debug().
		Str("pass_id", passID).
		Int("samples", batch.Len()).
		Int("rows", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("gradient pass complete")

	return out, nil
}
