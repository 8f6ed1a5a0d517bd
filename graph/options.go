package graph

import (
	"github.com/rs/zerolog"
)

// DefaultBufferSize is the capacity used by NewBatchAddGraph.
const DefaultBufferSize = 1000

// BatchOptions configures a BatchAddGraph.
type BatchOptions struct {
	// BufferSize is the number of statements that triggers a flush. Must be > 1.
	BufferSize int
	// BatchAddN makes AddN and AddSeq forward capacity-sized chunks directly
	// to the sink instead of routing each statement through the buffer.
	BatchAddN bool
	// Logger overrides the logger carried by the context. Optional.
	Logger *zerolog.Logger
}

// Option configures BatchOptions.
type Option func(*BatchOptions)

// DefaultBatchOptions returns the options NewBatchAddGraph starts from.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{BufferSize: DefaultBufferSize}
}

// Validate checks the options.
func (o BatchOptions) Validate() error {
	if o.BufferSize <= 1 {
		return &ConfigError{Field: "buffer_size", Value: o.BufferSize, Err: ErrInvalidBufferSize}
	}
	return nil
}

// OptBufferSize sets the flush threshold.
func OptBufferSize(n int) Option {
	return func(opts *BatchOptions) {
		opts.BufferSize = n
	}
}

// OptBatchAddN enables chunked forwarding for AddN and AddSeq.
func OptBatchAddN(enabled bool) Option {
	return func(opts *BatchOptions) {
		opts.BatchAddN = enabled
	}
}

// OptLogger sets the debug logger.
func OptLogger(logger zerolog.Logger) Option {
	return func(opts *BatchOptions) {
		opts.Logger = &logger
	}
}
