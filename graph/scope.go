package graph

import (
	"context"

	"github.com/geoknoesis/rdf-batch/internal/logctx"
)

// WithBatchAddGraph wraps g, runs fn and ends the batch. When fn returns nil
// the remaining buffer is flushed once and the batch closed. When fn returns
// an error or panics the buffer is discarded unforwarded.
//
// A failed final flush also discards the buffer; its error is returned.
func WithBatchAddGraph(ctx context.Context, g Graph, fn func(*BatchAddGraph) error, opts ...Option) error {
	options := DefaultBatchOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		logger := logctx.FromContext(ctx)
		options.Logger = &logger
	}
	b, err := NewBatchAddGraphWithOptions(g, options)
	if err != nil {
		return err
	}

	// Discard is a no-op once Close has succeeded.
	defer b.Discard()

	if err := fn(b); err != nil {
		return err
	}
	if b.Closed() {
		return nil
	}
	return b.Close(ctx)
}
