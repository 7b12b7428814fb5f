// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

package kernel

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/factorstream/factorstream/internal/factor"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// twoFeatureModel is the hand-computed reference scenario: k=2, bias 0.5,
// feature 1 with w=0.3 v=[0.1,0.2], feature 2 with w=-0.1 v=[0.4,-0.1].
func twoFeatureModel(t *testing.T) *factor.Model {
	t.Helper()
	m, err := factor.NewModel(2, 0.5,
		[]factor.Strength{
			{FeatureID: 1, Weight: 0.3},
			{FeatureID: 2, Weight: -0.1},
		},
		[]factor.InteractionVector{
			{FeatureID: 1, Vec: []float64{0.1, 0.2}},
			{FeatureID: 2, Vec: []float64{0.4, -0.1}},
		},
	)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m
}

func mustPass(t *testing.T, m *factor.Model, cfg Config) *Pass {
	t.Helper()
	p, err := NewPass(m, cfg)
	if err != nil {
		t.Fatalf("NewPass() error = %v", err)
	}
	return p
}

func TestPass_Score_ReferenceScenario(t *testing.T) {
	m := twoFeatureModel(t)
	samples := []factor.Sample{
		{ID: 7, Features: factor.FeatureVector{1: 2.0, 2: 1.0}},
	}

	// wixiSum = 0.3*2 + (-0.1)*1 = 0.5
	// vfxiSum = [0.6, 0.3], vi2xi2Sum = 0.37
	// interaction = 0.5*((0.36+0.09) - 0.37) = 0.04
	// raw = 0.5 + 0.5 + 0.04 = 1.04
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{
			name: "clamped to default unit interval",
			cfg:  DefaultConfig(),
			want: 1.0,
		},
		{
			name: "wide interval exposes raw score",
			cfg:  Config{MinLabel: -10, MaxLabel: 10},
			want: 1.04,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPass(t, m, tt.cfg)
			preds, err := p.Score(context.Background(), samples)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if len(preds) != 1 {
				t.Fatalf("len(preds) = %d, want 1", len(preds))
			}
			if preds[0].ID != 7 {
				t.Errorf("sample id = %d, want 7", preds[0].ID)
			}
			if !almostEqual(preds[0].Value, tt.want, 1e-12) {
				t.Errorf("prediction = %v, want %v", preds[0].Value, tt.want)
			}
		})
	}
}

func TestPass_Score_EmptyFeatureVectorDefaultsToBias(t *testing.T) {
	tests := []struct {
		name string
		bias float64
		cfg  Config
		want float64
	}{
		{name: "bias inside interval", bias: 0.5, cfg: DefaultConfig(), want: 0.5},
		{name: "bias above max clamps", bias: 3.0, cfg: DefaultConfig(), want: 1.0},
		{name: "bias below min clamps", bias: -2.0, cfg: DefaultConfig(), want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := factor.NewModel(2, tt.bias, nil, nil)
			if err != nil {
				t.Fatalf("NewModel() error = %v", err)
			}
			p := mustPass(t, m, tt.cfg)

			preds, err := p.Score(context.Background(), []factor.Sample{
				{Features: factor.FeatureVector{}, ID: factor.UnassignedID},
				{Features: nil, ID: factor.UnassignedID},
			})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if len(preds) != 2 {
				t.Fatalf("len(preds) = %d, want 2", len(preds))
			}
			for i, pr := range preds {
				if pr.Value != tt.want {
					t.Errorf("preds[%d] = %v, want %v", i, pr.Value, tt.want)
				}
			}
		})
	}
}

func TestPass_Score_UnmatchedFeaturesDropButSampleSurvives(t *testing.T) {
	m := twoFeatureModel(t)
	p := mustPass(t, m, Config{MinLabel: -10, MaxLabel: 10})

	preds, err := p.Score(context.Background(), []factor.Sample{
		// Feature 99 is in neither table; it must contribute nothing.
		{ID: 1, Features: factor.FeatureVector{1: 2.0, 2: 1.0, 99: 5.0}},
		// All features unmatched: degenerates to bias.
		{ID: 2, Features: factor.FeatureVector{98: 1.0, 99: 2.0}},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if !almostEqual(preds[0].Value, 1.04, 1e-12) {
		t.Errorf("matched sample prediction = %v, want 1.04", preds[0].Value)
	}
	if !almostEqual(preds[1].Value, 0.5, 1e-12) {
		t.Errorf("all-unmatched sample prediction = %v, want bias 0.5", preds[1].Value)
	}
}

func TestPass_Score_ClampInvariantRandomized(t *testing.T) {
	//nolint:gosec // G404: deterministic test data generation
	rng := rand.New(rand.NewSource(1))

	const k = 4
	strengths := make([]factor.Strength, 0, 50)
	vectors := make([]factor.InteractionVector, 0, 50)
	for id := int64(0); id < 50; id++ {
		strengths = append(strengths, factor.Strength{FeatureID: id, Weight: rng.NormFloat64() * 100})
		vec := make([]float64, k)
		for f := range vec {
			vec[f] = rng.NormFloat64() * 100
		}
		vectors = append(vectors, factor.InteractionVector{FeatureID: id, Vec: vec})
	}

	m, err := factor.NewModel(k, rng.NormFloat64()*100, strengths, vectors)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	p := mustPass(t, m, DefaultConfig())

	samples := make([]factor.Sample, 200)
	for i := range samples {
		fv := make(factor.FeatureVector)
		for n := 0; n < rng.Intn(10); n++ {
			fv[int64(rng.Intn(60))] = rng.NormFloat64() * 1000
		}
		samples[i] = factor.Sample{ID: factor.UnassignedID, Features: fv}
	}

	preds, err := p.Score(context.Background(), samples)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	for i, pr := range preds {
		if pr.Value < 0 || pr.Value > 1 {
			t.Fatalf("preds[%d] = %v, want in [0, 1]", i, pr.Value)
		}
	}
}

func TestPass_Score_ZeroFactorsReducesToLinearModel(t *testing.T) {
	// k = 0: empty latent vectors, interaction term always zero.
	m, err := factor.NewModel(0, 0.2,
		[]factor.Strength{
			{FeatureID: 1, Weight: 0.5},
			{FeatureID: 2, Weight: -0.25},
		},
		[]factor.InteractionVector{
			{FeatureID: 1, Vec: nil},
			{FeatureID: 2, Vec: []float64{}},
		},
	)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	p := mustPass(t, m, Config{MinLabel: -10, MaxLabel: 10})

	preds, err := p.Score(context.Background(), []factor.Sample{
		{ID: 0, Features: factor.FeatureVector{1: 2.0, 2: 4.0}},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// bias + 0.5*2 + (-0.25)*4 = 0.2
	if !almostEqual(preds[0].Value, 0.2, 1e-12) {
		t.Errorf("prediction = %v, want 0.2", preds[0].Value)
	}
}

func TestPass_Score_SingleFeatureHasNoSelfInteraction(t *testing.T) {
	tests := []struct {
		name  string
		vec   []float64
		x     float64
		w     float64
		bias  float64
		want  float64
		delta float64
	}{
		{
			name: "large vector components cancel exactly",
			vec:  []float64{3.5, -2.25, 0.75},
			x:    4.0,
			w:    0.5,
			bias: 1.0,
			// interaction must be exactly 0: raw = 1.0 + 0.5*4
			want: 3.0,
		},
		{
			name: "negative value",
			vec:  []float64{1.5, 2.5, -4.0},
			x:    -2.0,
			w:    1.25,
			bias: 0.0,
			want: -2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := factor.NewModel(len(tt.vec), tt.bias,
				[]factor.Strength{{FeatureID: 1, Weight: tt.w}},
				[]factor.InteractionVector{{FeatureID: 1, Vec: tt.vec}},
			)
			if err != nil {
				t.Fatalf("NewModel() error = %v", err)
			}
			p := mustPass(t, m, Config{MinLabel: -100, MaxLabel: 100})

			preds, err := p.Score(context.Background(), []factor.Sample{
				{ID: 0, Features: factor.FeatureVector{1: tt.x}},
			})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if !almostEqual(preds[0].Value, tt.want, 1e-9) {
				t.Errorf("prediction = %v, want %v", preds[0].Value, tt.want)
			}
		})
	}
}

func TestPass_JoinPolicyEquivalenceOnFullTables(t *testing.T) {
	// When every referenced feature id has entries in both tables, the inner
	// and outer policies must produce identical predictions.
	m := twoFeatureModel(t)
	p := mustPass(t, m, Config{MinLabel: -10, MaxLabel: 10})

	samples := []factor.Sample{
		{ID: 1, Features: factor.FeatureVector{1: 2.0, 2: 1.0}},
		{ID: 2, Features: factor.FeatureVector{1: -1.0}},
		{ID: 3, Features: factor.FeatureVector{2: 0.5}},
	}

	batch, err := NewBatch(samples)
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	ctx := context.Background()
	for _, policy := range []JoinPolicy{JoinInner, JoinOuterInit} {
		rows, err := batch.explode(ctx, p.cfg.Partitions)
		if err != nil {
			t.Fatalf("explode() error = %v", err)
		}
		contribs, err := p.join(ctx, rows, policy, 0.1)
		if err != nil {
			t.Fatalf("join(%v) error = %v", policy, err)
		}
		sums, err := p.aggregate(ctx, contribs)
		if err != nil {
			t.Fatalf("aggregate() error = %v", err)
		}

		wantBySample := map[int64]float64{}
		for _, s := range batch.Samples() {
			wantBySample[s.ID] = p.predict(sums, s.ID)
		}
		if !almostEqual(wantBySample[1], 1.04, 1e-12) {
			t.Errorf("policy %v: sample 1 prediction = %v, want 1.04", policy, wantBySample[1])
		}
	}
}

func TestPass_Score_PartitionCountDoesNotChangeResult(t *testing.T) {
	// The aggregates are associative sums; partitioning must not change the
	// mathematical result beyond rounding.
	m := twoFeatureModel(t)
	samples := []factor.Sample{
		{ID: factor.UnassignedID, Features: factor.FeatureVector{1: 2.0, 2: 1.0}},
		{ID: factor.UnassignedID, Features: factor.FeatureVector{1: 0.5}},
		{ID: factor.UnassignedID, Features: factor.FeatureVector{2: -3.0}},
		{ID: factor.UnassignedID, Features: factor.FeatureVector{1: 1.0, 2: 1.0}},
	}

	var baseline []factor.Prediction
	for _, partitions := range []int{1, 2, 3, 8} {
		p := mustPass(t, m, Config{MinLabel: -100, MaxLabel: 100, Partitions: partitions})
		preds, err := p.Score(context.Background(), samples)
		if err != nil {
			t.Fatalf("Score() with %d partitions error = %v", partitions, err)
		}
		if baseline == nil {
			baseline = preds
			continue
		}
		for i := range preds {
			if !almostEqual(preds[i].Value, baseline[i].Value, 1e-9) {
				t.Errorf("partitions=%d: preds[%d] = %v, baseline %v",
					partitions, i, preds[i].Value, baseline[i].Value)
			}
		}
	}
}

func TestNewPass_Validation(t *testing.T) {
	m := twoFeatureModel(t)

	tests := []struct {
		name    string
		model   *factor.Model
		cfg     Config
		wantErr bool
	}{
		{name: "valid", model: m, cfg: DefaultConfig(), wantErr: false},
		{name: "nil model", model: nil, cfg: DefaultConfig(), wantErr: true},
		{name: "inverted label range", model: m, cfg: Config{MinLabel: 1, MaxLabel: 0}, wantErr: true},
		{name: "empty label range", model: m, cfg: Config{MinLabel: 1, MaxLabel: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPass(tt.model, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPass() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
