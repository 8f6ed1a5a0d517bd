package rdf

import "context"

const (
	// DefaultMaxLineBytes bounds a single N-Triples/N-Quads line.
	DefaultMaxLineBytes = 1 << 20
	// DefaultMaxStatements disables the statement limit.
	DefaultMaxStatements = 0
)

// Option configures reader/writer behavior.
type Option func(*Options)

// Options configures parser behavior and limits.
// Zero values use defaults. Use negative values to disable specific limits.
type Options struct {
	// Context for cancellation.
	Context context.Context

	// MaxLineBytes limits line-based formats.
	MaxLineBytes int
	// MaxStatements limits the number of statements a reader emits. Zero means unlimited.
	MaxStatements int64

	// BaseIRI resolves relative IRIs in JSON-LD documents.
	BaseIRI string
}

// OptContext sets the context for cancellation.
func OptContext(ctx context.Context) Option {
	return func(opts *Options) {
		opts.Context = ctx
	}
}

// OptMaxLineBytes sets the maximum line size limit.
func OptMaxLineBytes(maxBytes int) Option {
	return func(opts *Options) {
		opts.MaxLineBytes = maxBytes
	}
}

// OptMaxStatements sets the maximum number of statements to read.
func OptMaxStatements(n int64) Option {
	return func(opts *Options) {
		opts.MaxStatements = n
	}
}

// OptBaseIRI sets the base IRI for JSON-LD input.
func OptBaseIRI(base string) Option {
	return func(opts *Options) {
		opts.BaseIRI = base
	}
}

func defaultOptions() Options {
	return Options{
		Context:       context.Background(),
		MaxLineBytes:  DefaultMaxLineBytes,
		MaxStatements: DefaultMaxStatements,
	}
}

func buildOptions(opts []Option) Options {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Context == nil {
		options.Context = context.Background()
	}
	if options.MaxLineBytes == 0 {
		options.MaxLineBytes = DefaultMaxLineBytes
	}
	return options
}
