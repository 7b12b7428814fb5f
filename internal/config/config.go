// Factorstream - Factorization Machines Scoring and Gradient Kernel
// Copyright 2026 Factorstream Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/factorstream/factorstream

// Package config loads layered configuration with koanf v2:
// built-in defaults, then an optional YAML file, then environment variables
// (FACTORSTREAM_* has the highest priority).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/factorstream/factorstream/internal/logging"
	"github.com/factorstream/factorstream/internal/validation"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// FACTORSTREAM_LABELS_MAX=5.0 sets labels.max.
const EnvPrefix = "FACTORSTREAM_"

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FACTORSTREAM_CONFIG"

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"factorstream.yaml",
	"factorstream.yml",
	"/etc/factorstream/config.yaml",
}

// ColumnsConfig names the input and output record columns (spec defaults
// shown). All names are overridable.
type ColumnsConfig struct {
	// SampleID is the optional pre-existing sample-id column.
	SampleID string `koanf:"sample_id" validate:"required"`

	// Features is the sparse feature vector column.
	Features string `koanf:"features" validate:"required"`

	// Label is the training target column.
	Label string `koanf:"label" validate:"required"`

	// Prediction is the output prediction column.
	Prediction string `koanf:"prediction" validate:"required"`
}

// LabelsConfig bounds the prediction clamp interval.
type LabelsConfig struct {
	// Min is the lower clamp bound. Default: 0.0.
	Min float64 `koanf:"min"`

	// Max is the upper clamp bound. Must be greater than Min. Default: 1.0.
	Max float64 `koanf:"max"`
}

// EngineConfig tunes the partitioned execution engine.
type EngineConfig struct {
	// Partitions is the number of dataset partitions.
	// 0 = use runtime.NumCPU().
	Partitions int `koanf:"partitions" validate:"gte=0"`

	// Seed seeds the Gaussian parameter initialization for training passes.
	Seed int64 `koanf:"seed"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics listener on.
	Enabled bool `koanf:"enabled"`

	// Listen is the address for the metrics listener.
	Listen string `koanf:"listen"`
}

// Config is the full application configuration.
type Config struct {
	Columns ColumnsConfig  `koanf:"columns"`
	Labels  LabelsConfig   `koanf:"labels"`
	Engine  EngineConfig   `koanf:"engine"`
	Logging logging.Config `koanf:"logging"`
	Metrics MetricsConfig  `koanf:"metrics"`
}

// defaultConfig returns the built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Columns: ColumnsConfig{
			SampleID:   "sampleId",
			Features:   "features",
			Label:      "label",
			Prediction: "prediction",
		},
		Labels: LabelsConfig{
			Min: 0.0,
			Max: 1.0,
		},
		Engine: EngineConfig{
			Partitions: 0, // 0 = use runtime.NumCPU()
			Seed:       42,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// FACTORSTREAM_* environment variables, then validates it. path may be empty,
// in which case the default search paths apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks tag constraints and cross-field invariants.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Labels.Max <= c.Labels.Min {
		return fmt.Errorf("labels.max (%g) must be greater than labels.min (%g)",
			c.Labels.Max, c.Labels.Min)
	}
	return nil
}

// envTransform maps FACTORSTREAM_SECTION_LEAF_NAME to section.leaf_name.
// The first underscore after the prefix separates the section; the rest is
// the leaf key, e.g. FACTORSTREAM_COLUMNS_SAMPLE_ID -> columns.sample_id.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, leaf, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	return section + "." + leaf
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
