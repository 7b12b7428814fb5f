// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"errors"
	"fmt"

	"github.com/factorstream/factorstream/internal/factor"
)

// ErrInvalidLabelRange indicates a clamp interval with max <= min.
var ErrInvalidLabelRange = errors.New("invalid label range")

// Config contains configuration for a scoring or gradient pass.
type Config struct {
	// MinLabel is the lower clamp bound for predictions.
	// Default: 0.0.
	MinLabel float64

	// MaxLabel is the upper clamp bound for predictions.
	// Default: 1.0.
	MaxLabel float64

	// Partitions is the number of dataset partitions transformations run
	// over. If <= 0, defaults to runtime.NumCPU().
	Partitions int

	// Seed seeds the Gaussian draws for on-demand parameter initialization
	// under the training join policy. If 0, uses a default seed.
	Seed int64
}

// DefaultConfig returns the default pass configuration.
func DefaultConfig() Config {
	return Config{
		MinLabel:   0.0,
		MaxLabel:   1.0,
		Partitions: 0,
		Seed:       42,
	}
}

// Pass evaluates one immutable model snapshot over sample batches. A Pass is
// stateless apart from the snapshot reference and is safe for concurrent use.
type Pass struct {
	model *factor.Model
	cfg   Config
}

// NewPass validates the snapshot and configuration and returns a pass.
// A k mismatch in the interaction table is rejected here, before any row is
// processed.
func NewPass(model *factor.Model, cfg Config) (*Pass, error) {
	if model == nil {
		return nil, errors.New("model snapshot is nil")
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.MaxLabel <= cfg.MinLabel {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidLabelRange, cfg.MinLabel, cfg.MaxLabel)
	}
	return &Pass{model: model, cfg: cfg}, nil
}

// Model returns the snapshot the pass evaluates.
func (p *Pass) Model() *factor.Model {
	return p.model
}

// clamp restricts x to the closed interval [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
