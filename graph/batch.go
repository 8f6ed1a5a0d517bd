package graph

import (
	"context"
	"iter"
	"slices"

	"github.com/rs/zerolog"

	"github.com/geoknoesis/rdf-batch/internal/logctx"
	"github.com/geoknoesis/rdf-batch/rdf"
)

var (
	_ Graph       = (*BatchAddGraph)(nil)
	_ Conjunctive = (*BatchAddGraph)(nil)
	_ Remover     = (*BatchAddGraph)(nil)
	_ Updater     = (*BatchAddGraph)(nil)
	_ SeqAdder    = (*BatchAddGraph)(nil)
)

// BatchAddGraph wraps a Graph and forwards added statements to its AddN in
// batches of BufferSize. Reads go straight to the wrapped graph, so
// statements still in the buffer are not visible through them.
//
// The wrapped graph is borrowed and never closed.
type BatchAddGraph struct {
	graph       Graph
	identifier  rdf.Term
	conjunctive bool
	buffer      *Buffer
	opts        BatchOptions
	closed      bool
}

// NewBatchAddGraph wraps g with DefaultBatchOptions adjusted by opts.
func NewBatchAddGraph(g Graph, opts ...Option) (*BatchAddGraph, error) {
	options := DefaultBatchOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewBatchAddGraphWithOptions(g, options)
}

// NewBatchAddGraphWithOptions wraps g using options as given. A zero
// BufferSize is rejected like any other value not greater than 1.
func NewBatchAddGraphWithOptions(g Graph, options BatchOptions) (*BatchAddGraph, error) {
	if g == nil {
		return nil, &ConfigError{Field: "graph", Value: nil, Err: ErrNilGraph}
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &BatchAddGraph{
		graph:       g,
		identifier:  g.Identifier(),
		conjunctive: IsConjunctive(g),
		buffer:      NewBuffer(options.BufferSize),
		opts:        options,
	}, nil
}

// Identifier returns the wrapped graph's identifier.
func (b *BatchAddGraph) Identifier() rdf.Term { return b.identifier }

// Conjunctive reports whether the wrapped graph accepts any graph name.
func (b *BatchAddGraph) Conjunctive() bool { return b.conjunctive }

// Sink returns the wrapped graph.
func (b *BatchAddGraph) Sink() Graph { return b.graph }

// Count returns the number of buffered statements not yet forwarded.
func (b *BatchAddGraph) Count() int { return b.buffer.Size() }

// Pending returns a copy of the buffered statements.
func (b *BatchAddGraph) Pending() []rdf.Quad { return b.buffer.Quads() }

// Closed reports whether Close or Discard was called.
func (b *BatchAddGraph) Closed() bool { return b.closed }

// Add buffers q and flushes once the buffer is full. A nil graph name
// becomes the wrapped graph's identifier. A statement naming another graph
// is dropped when the wrapped graph is not conjunctive.
func (b *BatchAddGraph) Add(ctx context.Context, q rdf.Quad) error {
	if b.closed {
		return ErrClosed
	}
	q, ok := b.normalize(q)
	if !ok {
		return nil
	}
	b.buffer.Append(q)
	if b.buffer.Full() {
		return b.Flush(ctx)
	}
	return nil
}

// AddN adds quads. See AddSeq.
func (b *BatchAddGraph) AddN(ctx context.Context, quads []rdf.Quad) error {
	return b.AddSeq(ctx, slices.Values(quads))
}

// AddSeq adds every statement of seq. With BatchAddN enabled, pending
// statements are flushed first and seq is forwarded in chunks of BufferSize
// without context filtering. Otherwise each statement goes through Add.
func (b *BatchAddGraph) AddSeq(ctx context.Context, seq iter.Seq[rdf.Quad]) error {
	if b.closed {
		return ErrClosed
	}
	if !b.opts.BatchAddN {
		for q := range seq {
			if err := b.Add(ctx, q); err != nil {
				return err
			}
		}
		return nil
	}

	if err := b.Flush(ctx); err != nil {
		return err
	}
	size := b.buffer.Capacity()
	chunk := make([]rdf.Quad, 0, min(size, maxPrealloc))
	for q := range seq {
		if q.G == nil {
			q.G = b.identifier
		}
		chunk = append(chunk, q)
		if len(chunk) >= size {
			if err := b.forward(ctx, chunk, "chunk forwarded"); err != nil {
				return err
			}
			chunk = make([]rdf.Quad, 0, min(size, maxPrealloc))
		}
	}
	if len(chunk) > 0 {
		return b.forward(ctx, chunk, "chunk forwarded")
	}
	return nil
}

// Flush forwards the buffer in one AddN call and clears it. An empty buffer
// makes no call. On failure the sink's error is returned as is and the
// buffer is kept.
func (b *BatchAddGraph) Flush(ctx context.Context) error {
	if b.closed {
		return ErrClosed
	}
	if b.buffer.Size() == 0 {
		return nil
	}
	if err := b.forward(ctx, b.buffer.batch(), "batch forwarded"); err != nil {
		return err
	}
	b.buffer.Clear()
	return nil
}

// Close flushes the buffer and closes b. If the flush fails b stays open
// with its buffer intact.
func (b *BatchAddGraph) Close(ctx context.Context) error {
	if err := b.Flush(ctx); err != nil {
		return err
	}
	b.closed = true
	return nil
}

// Discard drops buffered statements without forwarding them and closes b.
func (b *BatchAddGraph) Discard() {
	if b.closed {
		return
	}
	if n := b.buffer.Size(); n > 0 {
		logger := b.logger(context.Background())
		logger.Debug().Int("statements", n).Msg("pending batch discarded")
	}
	b.buffer.Clear()
	b.closed = true
}

// Triples reads from the wrapped graph.
func (b *BatchAddGraph) Triples(ctx context.Context, p Pattern) ([]rdf.Triple, error) {
	return b.graph.Triples(ctx, p)
}

// Len reads from the wrapped graph.
func (b *BatchAddGraph) Len(ctx context.Context) (int, error) {
	return b.graph.Len(ctx)
}

// Remove flushes pending statements, then removes q from the wrapped graph.
func (b *BatchAddGraph) Remove(ctx context.Context, q rdf.Quad) error {
	if b.closed {
		return ErrClosed
	}
	remover, ok := b.graph.(Remover)
	if !ok {
		return ErrRemoveUnsupported
	}
	if err := b.Flush(ctx); err != nil {
		return err
	}
	return remover.Remove(ctx, q)
}

// Update applies a SPARQL Update data request. Inserted statements go
// through Add, so large inserts flush along the way. Deletions flush first.
// The wrapped graph must implement Updater.
func (b *BatchAddGraph) Update(ctx context.Context, request string) error {
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.graph.(Updater); !ok {
		return ErrUpdateUnsupported
	}
	update, err := rdf.ParseUpdate(request)
	if err != nil {
		return err
	}
	return applyOperations(ctx, update, func(ctx context.Context, quads []rdf.Quad) error {
		for _, q := range quads {
			if err := b.Add(ctx, q); err != nil {
				return err
			}
		}
		return nil
	}, b.Remove)
}

func (b *BatchAddGraph) normalize(q rdf.Quad) (rdf.Quad, bool) {
	if q.G == nil {
		q.G = b.identifier
		return q, true
	}
	return q, b.conjunctive || q.G == b.identifier
}

func (b *BatchAddGraph) forward(ctx context.Context, quads []rdf.Quad, msg string) error {
	if err := b.graph.AddN(ctx, quads); err != nil {
		return err
	}
	logger := b.logger(ctx)
	logger.Debug().Int("statements", len(quads)).Msg(msg)
	return nil
}

func (b *BatchAddGraph) logger(ctx context.Context) *zerolog.Logger {
	if b.opts.Logger != nil {
		return b.opts.Logger
	}
	logger := logctx.FromContext(ctx)
	return &logger
}
