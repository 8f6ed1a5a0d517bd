package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/geoknoesis/rdf-batch/graph"
	"github.com/geoknoesis/rdf-batch/rdf"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rdfbatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.BatchOptions().BufferSize; got != graph.DefaultBufferSize {
		t.Fatalf("expected buffer size %d, got %d", graph.DefaultBufferSize, got)
	}
	if cfg.GraphTerm() != nil {
		t.Fatalf("expected nil graph term, got %v", cfg.GraphTerm())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
batch:
  buffer_size: 250
  batch_addn: true
store:
  uri: sqlite:/tmp/quads.db
  graph: http://example.org/g
log:
  debug: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := graph.BatchOptions{BufferSize: 250, BatchAddN: true}
	if diff := cmp.Diff(want, cfg.BatchOptions()); diff != "" {
		t.Fatalf("batch options mismatch (-want +got):\n%s", diff)
	}
	if cfg.Store.URI != "sqlite:/tmp/quads.db" || cfg.Store.Synchronous != "NORMAL" {
		t.Fatalf("unexpected store section: %+v", cfg.Store)
	}
	if cfg.GraphTerm() != (rdf.IRI{Value: "http://example.org/g"}) {
		t.Fatalf("unexpected graph term %v", cfg.GraphTerm())
	}
	if !cfg.Log.Debug || cfg.Log.Human {
		t.Fatalf("unexpected log section: %+v", cfg.Log)
	}
}

func TestLoadRejectsMissingBufferSize(t *testing.T) {
	cases := map[string]string{
		"null": "batch:\n  buffer_size: null\n",
		"zero": "batch:\n  buffer_size: 0\n",
		"one":  "batch:\n  buffer_size: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, graph.ErrInvalidBufferSize) {
				t.Fatalf("expected ErrInvalidBufferSize, got %v", err)
			}
			if graph.Code(err) != graph.ErrCodeInvalidConfig {
				t.Fatalf("expected INVALID_CONFIG, got %s", graph.Code(err))
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := Load(writeConfig(t, "batch: [")); err == nil {
		t.Fatal("expected YAML syntax error")
	}
	if _, err := Load(writeConfig(t, "store:\n  uri: \"\"\n")); err == nil {
		t.Fatal("expected empty store error")
	}
	if _, err := Load(writeConfig(t, "store:\n  graph: \"not an iri\"\n")); !errors.Is(err, rdf.ErrInvalidTerm) {
		t.Fatalf("expected invalid graph error, got %v", err)
	}
}

func TestReadDefersValidation(t *testing.T) {
	cfg, err := Read(writeConfig(t, "batch:\n  buffer_size: null\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Batch.BufferSize != nil {
		t.Fatalf("expected nil buffer size, got %d", *cfg.Batch.BufferSize)
	}
	if err := cfg.Validate(); !errors.Is(err, graph.ErrInvalidBufferSize) {
		t.Fatalf("expected ErrInvalidBufferSize, got %v", err)
	}
}
