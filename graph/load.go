package graph

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/geoknoesis/rdf-batch/internal/logctx"
	"github.com/geoknoesis/rdf-batch/rdf"
)

// Load reads a document and adds every statement to g. Graphs implementing
// SeqAdder consume the statements as a stream; others get one Add per
// statement. It returns the number of statements read.
//
// On a read error, statements already handed to g stay there.
func Load(ctx context.Context, g Graph, r io.Reader, format rdf.Format, opts ...rdf.Option) (int, error) {
	reader, err := rdf.NewReader(r, format, append(opts, rdf.OptContext(ctx))...)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	var (
		count   int
		readErr error
	)
	statements := func(yield func(rdf.Quad) bool) {
		for {
			q, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				readErr = err
				return
			}
			count++
			if !yield(q) {
				return
			}
		}
	}

	if err := addSeq(ctx, g, statements); err != nil {
		return count, err
	}
	if readErr != nil {
		return count, readErr
	}
	logger := logctx.FromContext(ctx)
	logger.Debug().Str("format", string(format)).Int("statements", count).Msg("document loaded")
	return count, nil
}

// Copy adds the triples of src matching p to dst. Statements land in dst's
// own graph. It returns the number of triples copied.
func Copy(ctx context.Context, dst, src Graph, p Pattern) (int, error) {
	triples, err := src.Triples(ctx, p)
	if err != nil {
		return 0, err
	}
	quads := func(yield func(rdf.Quad) bool) {
		for _, t := range triples {
			if !yield(t.ToQuad()) {
				return
			}
		}
	}
	if err := addSeq(ctx, dst, quads); err != nil {
		return 0, err
	}
	return len(triples), nil
}

func addSeq(ctx context.Context, g Graph, seq iter.Seq[rdf.Quad]) error {
	if adder, ok := g.(SeqAdder); ok {
		return adder.AddSeq(ctx, seq)
	}
	for q := range seq {
		if err := g.Add(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
