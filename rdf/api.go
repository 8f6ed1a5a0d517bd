package rdf

import (
	"context"
	"io"
)

// Reader streams RDF statements from an input.
// Triple formats yield quads with a nil G.
type Reader interface {
	Next() (Quad, error)
	Close() error
}

// Writer streams RDF statements to an output.
// For triple-only formats, the graph (G) field is ignored.
type Writer interface {
	Write(Quad) error
	Flush() error
	Close() error
}

// Handler processes statements in push mode.
type Handler func(Quad) error

// NewReader creates a reader for the specified format.
func NewReader(r io.Reader, format Format, opts ...Option) (Reader, error) {
	options := buildOptions(opts)
	switch format {
	case FormatNTriples, FormatNQuads:
		return newNTDecoder(r, format, options), nil
	case FormatJSONLD:
		return newJSONLDReader(r, options)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Parse parses RDF from the reader and streams statements to the handler.
// If ctx is nil, context.Background() is used.
func Parse(ctx context.Context, r io.Reader, format Format, handler Handler, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reader, err := NewReader(r, format, append(opts, OptContext(ctx))...)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		stmt, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handler(stmt); err != nil {
			return err
		}
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatNTriples, FormatNQuads:
		return newNTEncoder(w, format), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
