package rdf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	ld "github.com/piprate/json-gold/ld"
)

const (
	jsonldDefaultGraph = "@default"
	xsdString          = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// jsonldReader expands a whole JSON-LD document up front; json-gold has no
// streaming ToRDF.
type jsonldReader struct {
	quads []Quad
	index int
}

func newJSONLDReader(r io.Reader, opts Options) (*jsonldReader, error) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	var doc interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, wrapParseError(string(FormatJSONLD), "", 0, 0, err)
	}
	quads, err := JSONLDToQuads(opts.Context, doc, opts)
	if err != nil {
		return nil, err
	}
	if opts.MaxStatements > 0 && int64(len(quads)) > opts.MaxStatements {
		return nil, ErrStatementLimitExceeded
	}
	return &jsonldReader{quads: quads}, nil
}

func (d *jsonldReader) Next() (Quad, error) {
	if d.index >= len(d.quads) {
		return Quad{}, io.EOF
	}
	q := d.quads[d.index]
	d.index++
	return q, nil
}

func (d *jsonldReader) Close() error { return nil }

// ParseJSONLD expands the JSON-LD document in r and passes each statement to
// handler, stopping at the first handler error.
func ParseJSONLD(ctx context.Context, r io.Reader, opts Options, handler Handler) error {
	if ctx != nil {
		opts.Context = ctx
	}
	reader, err := newJSONLDReader(r, opts)
	if err != nil {
		return err
	}
	for _, q := range reader.quads {
		if err := handler(q); err != nil {
			return err
		}
	}
	return nil
}

// JSONLDToQuads converts a decoded JSON-LD document to quads using json-gold.
// Statements in the default graph have a nil G. Graphs are emitted default
// graph first, then named graphs in lexical order.
func JSONLDToQuads(ctx context.Context, doc interface{}, opts Options) ([]Quad, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	goldOpts := ld.NewJsonLdOptions(opts.BaseIRI)
	result, err := ld.NewJsonLdProcessor().ToRDF(doc, goldOpts)
	if err != nil {
		return nil, wrapParseError(string(FormatJSONLD), "", 0, 0, err)
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("jsonld: unexpected ToRDF result %T", result)
	}

	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == jsonldDefaultGraph || names[j] == jsonldDefaultGraph {
			return names[i] == jsonldDefaultGraph
		}
		return names[i] < names[j]
	})

	var quads []Quad
	for _, name := range names {
		var graph Term
		if name != jsonldDefaultGraph {
			graph = graphNameTerm(name)
		}
		for _, lq := range dataset.Graphs[name] {
			if lq == nil {
				continue
			}
			q, err := fromJSONGoldQuad(lq, graph)
			if err != nil {
				return nil, err
			}
			quads = append(quads, q)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return quads, nil
}

func fromJSONGoldQuad(lq *ld.Quad, graph Term) (Quad, error) {
	subject := fromJSONGoldNode(lq.Subject)
	predicate, ok := fromJSONGoldNode(lq.Predicate).(IRI)
	if !ok {
		return Quad{}, fmt.Errorf("jsonld: %w: predicate %v is not an IRI", ErrInvalidTerm, lq.Predicate)
	}
	object := fromJSONGoldNode(lq.Object)
	if subject == nil || object == nil {
		return Quad{}, fmt.Errorf("jsonld: %w: incomplete statement", ErrInvalidTerm)
	}
	return Quad{S: subject, P: predicate, O: object, G: graph}, nil
}

func fromJSONGoldNode(node ld.Node) Term {
	switch value := node.(type) {
	case ld.IRI:
		return IRI{Value: value.Value}
	case ld.BlankNode:
		return BlankNode{ID: strings.TrimPrefix(value.Attribute, "_:")}
	case ld.Literal:
		lit := Literal{Lexical: value.Value, Lang: value.Language}
		if value.Datatype != xsdString && value.Datatype != rdfLangString {
			lit.Datatype = IRI{Value: value.Datatype}
		}
		return lit
	default:
		return nil
	}
}

func graphNameTerm(name string) Term {
	if strings.HasPrefix(name, "_:") {
		return BlankNode{ID: name[2:]}
	}
	return IRI{Value: name}
}
