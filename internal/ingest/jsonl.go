// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package ingest reads sample batches from JSON Lines and writes prediction
// and gradient rows back out, using the configured column names. A full batch
// is decoded before a pass starts, so schema errors surface up front rather
// than mid-pass.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/factorstream/factorstream/internal/config"
	"github.com/factorstream/factorstream/internal/factor"
)

// ErrSchema indicates a missing or mis-typed column in an input record.
var ErrSchema = errors.New("input schema error")

// Codec translates between JSONL records and the typed data model.
type Codec struct {
	cols config.ColumnsConfig
}

// NewCodec creates a codec for the given column configuration.
func NewCodec(cols config.ColumnsConfig) *Codec {
	return &Codec{cols: cols}
}

// ReadSamples decodes one sample per non-blank input line. The feature vector
// column is required on every record; the sample-id and label columns are
// optional. Feature ids must be non-negative integers.
func (c *Codec) ReadSamples(r io.Reader) ([]factor.Sample, error) {
	var samples []factor.Sample

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var record map[string]json.RawMessage
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSchema, line, err)
		}

		sample, err := c.decodeSample(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSchema, line, err)
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return samples, nil
}

func (c *Codec) decodeSample(record map[string]json.RawMessage) (factor.Sample, error) {
	sample := factor.Sample{ID: factor.UnassignedID}

	rawFeatures, ok := record[c.cols.Features]
	if !ok {
		return sample, fmt.Errorf("missing feature column %q", c.cols.Features)
	}
	var byName map[string]float64
	if err := json.Unmarshal(rawFeatures, &byName); err != nil {
		return sample, fmt.Errorf("feature column %q is not a sparse numeric object: %v", c.cols.Features, err)
	}
	sample.Features = make(factor.FeatureVector, len(byName))
	for key, v := range byName {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id < 0 {
			return sample, fmt.Errorf("feature id %q is not a non-negative integer", key)
		}
		sample.Features[id] = v
	}

	if rawID, ok := record[c.cols.SampleID]; ok {
		var id int64
		if err := json.Unmarshal(rawID, &id); err != nil {
			return sample, fmt.Errorf("sample id column %q is not an integer: %v", c.cols.SampleID, err)
		}
		if id < 0 {
			return sample, fmt.Errorf("sample id %d is negative", id)
		}
		sample.ID = id
	}

	if rawLabel, ok := record[c.cols.Label]; ok {
		var label float64
		if err := json.Unmarshal(rawLabel, &label); err != nil {
			return sample, fmt.Errorf("label column %q is not numeric: %v", c.cols.Label, err)
		}
		sample.Label = &label
	}

	return sample, nil
}

// WritePredictions emits one JSONL record per prediction, preserving the
// original sample columns and adding the prediction column.
func (c *Codec) WritePredictions(w io.Writer, preds []factor.Prediction) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for _, p := range preds {
		record := map[string]interface{}{
			c.cols.SampleID:   p.ID,
			c.cols.Features:   featuresByName(p.Features),
			c.cols.Prediction: p.Value,
		}
		if p.Label != nil {
			record[c.cols.Label] = *p.Label
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("write prediction: %w", err)
		}
	}
	return bw.Flush()
}

// WriteGradients emits one JSONL record per (sample, feature) gradient row.
func (c *Codec) WriteGradients(w io.Writer, rows []factor.GradientRow) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for _, g := range rows {
		record := map[string]interface{}{
			c.cols.SampleID:   g.SampleID,
			c.cols.Label:      g.Label,
			c.cols.Prediction: g.Prediction,
			"featureId":       g.FeatureID,
			"loss":            g.Loss,
			"deltaWi":         g.DeltaWi,
			"deltaVi":         g.DeltaVi,
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("write gradient row: %w", err)
		}
	}
	return bw.Flush()
}

func featuresByName(fv factor.FeatureVector) map[string]float64 {
	out := make(map[string]float64, len(fv))
	for id, v := range fv {
		out[strconv.FormatInt(id, 10)] = v
	}
	return out
}
