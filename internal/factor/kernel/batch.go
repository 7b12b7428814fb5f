// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/factorstream/factorstream/internal/dataset"
	"github.com/factorstream/factorstream/internal/factor"
)

// ErrDuplicateSampleID indicates two input samples carrying the same
// pre-assigned sample id within one batch.
var ErrDuplicateSampleID = errors.New("duplicate sample id in batch")

// Batch is a materialized sample batch with sample ids assigned exactly once.
//
// Both downstream consumers of a pass (the join path and the final
// re-attachment of predictions to the original rows) read the same assigned
// ids from the batch. Assignment never happens twice for one logical batch,
// so the two paths cannot desynchronize.
type Batch struct {
	samples []factor.Sample
}

// NewBatch copies the input samples and assigns an id to every sample that
// does not already carry one. Assigned ids are drawn from a batch-scoped
// monotonically-increasing counter that skips pre-assigned ids, so all ids
// are pairwise distinct within the batch. Duplicate pre-assigned ids are a
// data-integrity error.
func NewBatch(samples []factor.Sample) (*Batch, error) {
	used := make(map[int64]struct{}, len(samples))
	for _, s := range samples {
		if !s.HasID() {
			continue
		}
		if _, ok := used[s.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSampleID, s.ID)
		}
		used[s.ID] = struct{}{}
	}

	out := make([]factor.Sample, len(samples))
	copy(out, samples)

	var next int64
	for i := range out {
		if out[i].HasID() {
			continue
		}
		for {
			if _, ok := used[next]; !ok {
				break
			}
			next++
		}
		out[i].ID = next
		used[next] = struct{}{}
		next++
	}

	return &Batch{samples: out}, nil
}

// Samples returns the materialized samples with ids assigned.
// Callers must treat the returned slice as read-only.
func (b *Batch) Samples() []factor.Sample {
	return b.samples
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.samples)
}

// featureRow is one exploded (sample, feature, value) row.
type featureRow struct {
	sampleID  int64
	featureID int64
	value     float64
}

// explode turns the batch into a partitioned row stream, one row per
// explicitly-present feature entry. Explicit zero values are preserved.
func (b *Batch) explode(ctx context.Context, partitions int) (*dataset.Collection[featureRow], error) {
	coll := dataset.FromSlice(b.samples, partitions)
	return dataset.FlatMap(ctx, coll, func(s factor.Sample) ([]featureRow, error) {
		if len(s.Features) == 0 {
			return nil, nil
		}
		rows := make([]featureRow, 0, len(s.Features))
		for id, v := range s.Features {
			rows = append(rows, featureRow{sampleID: s.ID, featureID: id, value: v})
		}
		return rows, nil
	})
}
