// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package factor

// UnassignedID marks a sample that has not been assigned a sample id yet.
// Batch preparation replaces it with an id unique within the batch.
const UnassignedID int64 = -1

// FeatureVector is a sparse mapping from feature id to value. Absent ids are
// implicitly zero. Entries whose value is exactly zero may be present; the
// pipeline preserves whatever is explicitly present and does not filter them.
type FeatureVector map[int64]float64

// Clone returns a deep copy of the vector.
func (fv FeatureVector) Clone() FeatureVector {
	if fv == nil {
		return nil
	}
	out := make(FeatureVector, len(fv))
	for id, v := range fv {
		out[id] = v
	}
	return out
}

// Sample is one input record.
type Sample struct {
	// ID is the sample identifier, unique within one processing invocation.
	// UnassignedID (or any negative value) means the id has not been assigned;
	// batch preparation assigns one.
	ID int64 `json:"sample_id"`

	// Label is the training target. Nil for scoring-only input.
	Label *float64 `json:"label,omitempty"`

	// Features is the sparse feature vector.
	Features FeatureVector `json:"features"`
}

// HasID reports whether the sample carries a pre-assigned id.
func (s Sample) HasID() bool {
	return s.ID >= 0
}

// Strength is the linear weight w_i for a feature.
type Strength struct {
	FeatureID int64   `json:"feature_id"`
	Weight    float64 `json:"weight"`
}

// InteractionVector is the latent factor vector v_i for a feature.
// Vec always has length Model.K within a valid snapshot.
type InteractionVector struct {
	FeatureID int64     `json:"feature_id"`
	Vec       []float64 `json:"vec"`
}

// Prediction is a scored sample. The original sample fields are preserved.
type Prediction struct {
	Sample

	// Value is the final prediction, clamped to [minLabel, maxLabel].
	Value float64 `json:"prediction"`
}

// GradientRow is one gradient signal for an external optimizer: one row per
// (sample, active feature) pair produced by a training pass.
type GradientRow struct {
	SampleID  int64   `json:"sample_id"`
	FeatureID int64   `json:"feature_id"`
	Label     float64 `json:"label"`

	// Prediction is the clamped prediction for the sample, identical for every
	// row of the same sample.
	Prediction float64 `json:"prediction"`

	// Loss is the sample-level squared error (prediction - label)^2, broadcast
	// to each of the sample's feature rows so a row-parallel optimizer can
	// apply it per feature without a second join.
	Loss float64 `json:"loss"`

	// DeltaWi is the gradient of the raw prediction with respect to the
	// feature's linear weight: x_i.
	DeltaWi float64 `json:"delta_wi"`

	// DeltaVi is the gradient of the interaction term with respect to the
	// feature's latent vector, length k.
	DeltaVi []float64 `json:"delta_vi"`
}
