// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package factor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// ErrDimensionMismatch indicates an interaction vector whose length does not
// match the snapshot's factorization dimension k. This is a data-integrity
// error surfaced at table-load time, never mid-join.
var ErrDimensionMismatch = errors.New("interaction vector dimension mismatch")

// Model is an immutable parameter snapshot for one scoring or gradient pass.
//
// The tables are shared, read-only inputs; they are owned and mutated only by
// the external optimizer between passes. K is fixed for the lifetime of the
// snapshot and equals the length of every interaction vector.
type Model struct {
	// K is the factorization dimension. K = 0 degenerates to a linear model.
	K int `json:"k"`

	// Bias is the global additive offset w0.
	Bias float64 `json:"bias"`

	// Strengths maps feature id to linear weight w_i.
	Strengths map[int64]float64 `json:"strengths"`

	// Vectors maps feature id to latent vector v_i (length K).
	Vectors map[int64][]float64 `json:"vectors"`
}

// NewModel builds a snapshot from table entries and validates it.
func NewModel(k int, bias float64, strengths []Strength, vectors []InteractionVector) (*Model, error) {
	m := &Model{
		K:         k,
		Bias:      bias,
		Strengths: make(map[int64]float64, len(strengths)),
		Vectors:   make(map[int64][]float64, len(vectors)),
	}

	for _, s := range strengths {
		m.Strengths[s.FeatureID] = s.Weight
	}
	for _, v := range vectors {
		vec := make([]float64, len(v.Vec))
		copy(vec, v.Vec)
		m.Vectors[v.FeatureID] = vec
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks snapshot integrity: k must be non-negative and every
// interaction vector must have exactly k components.
func (m *Model) Validate() error {
	if m.K < 0 {
		return fmt.Errorf("factorization dimension k = %d, must be >= 0", m.K)
	}
	for id, vec := range m.Vectors {
		if len(vec) != m.K {
			return fmt.Errorf("%w: feature %d has %d components, snapshot k = %d",
				ErrDimensionMismatch, id, len(vec), m.K)
		}
	}
	return nil
}

// Lookup returns the weight and latent vector for a feature id.
// The second return is false when either table lacks the id.
func (m *Model) Lookup(featureID int64) (float64, []float64, bool) {
	w, okW := m.Strengths[featureID]
	v, okV := m.Vectors[featureID]
	if !okW || !okV {
		return 0, nil, false
	}
	return w, v, true
}

// ReadModel decodes a snapshot from JSON and validates it.
func ReadModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model snapshot: %w", err)
	}
	if m.Strengths == nil {
		m.Strengths = make(map[int64]float64)
	}
	if m.Vectors == nil {
		m.Vectors = make(map[int64][]float64)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadModel reads a snapshot from a JSON file.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model snapshot: %w", err)
	}
	defer f.Close()
	return ReadModel(f)
}
