// Package cli implements the command-line interface for rdfbatch.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoknoesis/rdf-batch/graph"
	"github.com/geoknoesis/rdf-batch/internal/config"
	"github.com/geoknoesis/rdf-batch/internal/logctx"
	"github.com/geoknoesis/rdf-batch/rdf"
	"github.com/geoknoesis/rdf-batch/rdfparquet"
	"github.com/geoknoesis/rdf-batch/store/s3store"
	"github.com/geoknoesis/rdf-batch/store/sqlitestore"
)

const usage = "usage: rdfbatch <command> [options]\ncommands: load, update, count, export"

const formatParquet = "parquet"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	return run(context.Background(), args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	switch args[0] {
	case "load":
		return e.runLoad(ctx, args[1:])
	case "update":
		return e.runUpdate(ctx, args[1:])
	case "count":
		return e.runCount(ctx, args[1:])
	case "export":
		return e.runExport(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type commonFlags struct {
	config     string
	store      string
	graph      string
	bufferSize int
	batchAddN  bool
	debug      bool
	human      bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &commonFlags{}
	fs.StringVar(&c.config, "config", "", "YAML configuration file")
	fs.StringVar(&c.store, "store", "", "sink: memory, sqlite:PATH or s3://bucket/prefix")
	fs.StringVar(&c.graph, "graph", "", "graph identifier IRI")
	fs.IntVar(&c.bufferSize, "buffer-size", graph.DefaultBufferSize, "statements per batch")
	fs.BoolVar(&c.batchAddN, "batch-addn", false, "forward bulk adds in buffer-sized chunks")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.human, "human", false, "human-readable log output")
	return fs, c
}

// resolve loads the config file, if any, and applies the flags that were set
// on the command line over it.
func (c *commonFlags) resolve(fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if c.config != "" {
		loaded, err := config.Read(c.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "store":
			cfg.Store.URI = c.store
		case "graph":
			cfg.Store.Graph = c.graph
		case "buffer-size":
			size := c.bufferSize
			cfg.Batch.BufferSize = &size
		case "batch-addn":
			cfg.Batch.BatchAddN = c.batchAddN
		case "debug":
			cfg.Log.Debug = c.debug
		case "human":
			cfg.Log.Human = c.human
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (e *env) setup(ctx context.Context, fs *flag.FlagSet, c *commonFlags) (context.Context, config.Config, error) {
	cfg, err := c.resolve(fs)
	if err != nil {
		return ctx, cfg, err
	}
	logger := logctx.NewConfiguredLogger(e.stderr, cfg.Log.Debug, cfg.Log.Human)
	ctx = logctx.WithLogger(ctx, logger)
	ctx = logctx.WithStr(ctx, "store", cfg.Store.URI)
	return ctx, cfg, nil
}

// openStore returns the sink named by cfg.Store.URI and a function that
// releases it.
func openStore(ctx context.Context, cfg config.Config) (graph.Graph, func() error, error) {
	uri := cfg.Store.URI
	noop := func() error { return nil }
	switch {
	case uri == "memory":
		var opts []graph.MemoryOption
		if id := cfg.GraphTerm(); id != nil {
			opts = append(opts, graph.MemoryIdentifier(id))
		}
		if cfg.Store.Conjunctive {
			opts = append(opts, graph.MemoryConjunctive())
		}
		return graph.NewMemoryGraph(opts...), noop, nil
	case strings.HasPrefix(uri, "sqlite:"):
		store, err := sqlitestore.Open(ctx, sqlitestore.Config{
			Path:        strings.TrimPrefix(uri, "sqlite:"),
			Graph:       cfg.GraphTerm(),
			Conjunctive: cfg.Store.Conjunctive,
			Synchronous: cfg.Store.Synchronous,
			CacheSizeKB: cfg.Store.CacheSizeKB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case strings.HasPrefix(uri, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		store, err := s3store.NewFromDefaultConfig(ctx, s3store.Config{
			Bucket:      bucket,
			Prefix:      prefix,
			Graph:       cfg.GraphTerm(),
			Conjunctive: cfg.Store.Conjunctive,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, &graph.ConfigError{Field: "store.uri", Value: uri, Err: errors.New("expected memory, sqlite:PATH or s3://bucket/prefix")}
	}
}

func (e *env) runLoad(ctx context.Context, args []string) (err error) {
	fs, common := newFlagSet("load", e.stderr)
	format := fs.String("format", "", "input format: ntriples, nquads, jsonld or parquet (default from extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("at least one input file is required")
	}
	ctx, cfg, err := e.setup(ctx, fs, common)
	if err != nil {
		return err
	}
	sink, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	total := 0
	err = graph.WithBatchAddGraph(ctx, sink, func(b *graph.BatchAddGraph) error {
		for _, path := range files {
			n, err := loadFile(ctx, b, path, *format)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			total += n
			logger := logctx.FromContext(ctx)
			logger.Info().Str("file", path).Int("statements", n).Msg("file loaded")
		}
		return nil
	}, withBatchOptions(cfg)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "loaded %d statements from %d files\n", total, len(files))
	return nil
}

func loadFile(ctx context.Context, b *graph.BatchAddGraph, path, format string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if format == formatParquet || (format == "" && filepath.Ext(path) == ".parquet") {
		info, err := f.Stat()
		if err != nil {
			return 0, err
		}
		n := 0
		err = rdfparquet.Read(ctx, f, info.Size(), func(q rdf.Quad) error {
			n++
			return b.Add(ctx, q)
		})
		return n, err
	}

	rdfFormat, err := inputFormat(path, format)
	if err != nil {
		return 0, err
	}
	return graph.Load(ctx, b, f, rdfFormat)
}

func inputFormat(path, format string) (rdf.Format, error) {
	if format != "" {
		f, ok := rdf.ParseFormat(format)
		if !ok {
			return "", fmt.Errorf("%w: %s", rdf.ErrUnsupportedFormat, format)
		}
		return f, nil
	}
	f, ok := rdf.FormatFromPath(path)
	if !ok {
		return "", fmt.Errorf("cannot detect format of %s; use --format", path)
	}
	return f, nil
}

func (e *env) runUpdate(ctx context.Context, args []string) (err error) {
	fs, common := newFlagSet("update", e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one update file (or - for stdin) is required")
	}
	ctx, cfg, err := e.setup(ctx, fs, common)
	if err != nil {
		return err
	}

	var input io.Reader = e.stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read update: %w", err)
	}
	request := string(data)
	parsed, err := rdf.ParseUpdate(request)
	if err != nil {
		return err
	}

	sink, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = graph.WithBatchAddGraph(ctx, sink, func(b *graph.BatchAddGraph) error {
		return b.Update(ctx, request)
	}, withBatchOptions(cfg)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "update applied: %d statements inserted, %d deleted\n",
		parsed.Count(rdf.UpdateInsertData), parsed.Count(rdf.UpdateDeleteData))
	return nil
}

func (e *env) runCount(ctx context.Context, args []string) (err error) {
	fs, common := newFlagSet("count", e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, cfg, err := e.setup(ctx, fs, common)
	if err != nil {
		return err
	}
	sink, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	n, err := sink.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, n)
	return nil
}

func (e *env) runExport(ctx context.Context, args []string) (err error) {
	fs, common := newFlagSet("export", e.stderr)
	out := fs.String("out", "", "output file")
	format := fs.String("format", "", "output format: ntriples, nquads or parquet (default from extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	ctx, cfg, err := e.setup(ctx, fs, common)
	if err != nil {
		return err
	}
	sink, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	triples, err := sink.Triples(ctx, graph.Pattern{})
	if err != nil {
		return err
	}
	quads := make([]rdf.Quad, len(triples))
	for i, t := range triples {
		quads[i] = t.ToQuadInGraph(sink.Identifier())
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	if *format == formatParquet || (*format == "" && filepath.Ext(*out) == ".parquet") {
		err = writeParquet(f, quads, cfg.BatchOptions().BufferSize)
	} else {
		var rdfFormat rdf.Format
		if rdfFormat, err = inputFormat(*out, *format); err != nil {
			return err
		}
		err = writeRDF(f, rdfFormat, quads)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger := logctx.FromContext(ctx)
	logger.Info().Str("file", *out).Int("statements", len(quads)).Msg("export written")
	fmt.Fprintf(e.stdout, "exported %d statements to %s\n", len(quads), *out)
	return nil
}

func writeParquet(w io.Writer, quads []rdf.Quad, rowGroupSize int) error {
	pw := rdfparquet.NewWriter(w)
	for start := 0; start < len(quads); start += rowGroupSize {
		end := min(start+rowGroupSize, len(quads))
		if err := pw.WriteBatch(quads[start:end]); err != nil {
			return err
		}
	}
	return pw.Close()
}

func writeRDF(w io.Writer, format rdf.Format, quads []rdf.Quad) error {
	writer, err := rdf.NewWriter(w, format)
	if err != nil {
		return err
	}
	for _, q := range quads {
		if err := writer.Write(q); err != nil {
			return err
		}
	}
	return writer.Close()
}

func withBatchOptions(cfg config.Config) []graph.Option {
	opts := cfg.BatchOptions()
	return []graph.Option{graph.OptBufferSize(opts.BufferSize), graph.OptBatchAddN(opts.BatchAddN)}
}
