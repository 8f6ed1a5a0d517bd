// Package config loads the rdfbatch command configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/geoknoesis/rdf-batch/graph"
	"github.com/geoknoesis/rdf-batch/rdf"
)

// Config is the top-level command configuration.
type Config struct {
	Batch BatchConfig `yaml:"batch"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// BatchConfig maps onto graph.BatchOptions.
type BatchConfig struct {
	// BufferSize is a pointer so an explicit null can be told apart from a
	// missing key.
	BufferSize *int `yaml:"buffer_size"`
	BatchAddN  bool `yaml:"batch_addn"`
}

// StoreConfig selects and tunes the sink.
type StoreConfig struct {
	// URI is "memory", "sqlite:PATH" or "s3://bucket/prefix".
	URI string `yaml:"uri"`
	// Graph is the sink identifier as an IRI. Empty uses the store default.
	Graph       string `yaml:"graph"`
	Conjunctive bool   `yaml:"conjunctive"`
	Synchronous string `yaml:"synchronous"`
	CacheSizeKB int    `yaml:"cache_size_kb"`
}

// LogConfig controls the command logger.
type LogConfig struct {
	Debug bool `yaml:"debug"`
	Human bool `yaml:"human"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	size := graph.DefaultBufferSize
	return Config{
		Batch: BatchConfig{BufferSize: &size},
		Store: StoreConfig{
			URI:         "memory",
			Synchronous: "NORMAL",
			CacheSizeKB: 65536,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes path over the defaults without validating, so callers can
// apply overrides first.
func Read(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.BatchOptions().Validate(); err != nil {
		return err
	}
	if c.Store.URI == "" {
		return &graph.ConfigError{Field: "store.uri", Value: `""`, Err: fmt.Errorf("store is required")}
	}
	if c.Store.Graph != "" && strings.ContainsAny(c.Store.Graph, " <>\"") {
		return &graph.ConfigError{Field: "store.graph", Value: c.Store.Graph, Err: rdf.ErrInvalidTerm}
	}
	return nil
}

// BatchOptions converts the batch section. A missing buffer size yields 0,
// which BatchOptions.Validate rejects.
func (c Config) BatchOptions() graph.BatchOptions {
	opts := graph.BatchOptions{BatchAddN: c.Batch.BatchAddN}
	if c.Batch.BufferSize != nil {
		opts.BufferSize = *c.Batch.BufferSize
	}
	return opts
}

// GraphTerm returns the configured identifier, or nil for the store default.
func (c Config) GraphTerm() rdf.Term {
	if c.Store.Graph == "" {
		return nil
	}
	return rdf.IRI{Value: c.Store.Graph}
}
