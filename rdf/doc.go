// Package rdf provides a compact RDF statement model with streaming codecs.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// The package is the statement layer used by the graph and store packages:
//   - Model: Term (IRI, BlankNode, Literal, TripleTerm), Triple and Quad.
//   - Decode: NewReader() and Parse() stream N-Triples, N-Quads and JSON-LD.
//   - Encode: NewWriter() streams N-Triples and N-Quads.
//   - Terms: ParseTerm() and FormatTerm() convert single terms to and from
//     their N-Triples form, which is also the storage form used by stores.
//   - Update: ParseUpdate() reads the data subset of SPARQL 1.1 Update
//     (INSERT DATA / DELETE DATA) into quads.
//
// A statement is a Quad. A quad whose G is nil is a triple; graph-aware code
// decides which graph such a statement belongs to.
//
// Example (streaming N-Quads):
//
//	err := rdf.Parse(ctx, f, rdf.FormatNQuads, func(q rdf.Quad) error {
//	    // process q.S, q.P, q.O, q.G
//	    return nil
//	})
//
// For unsupported formats, NewReader and NewWriter return ErrUnsupportedFormat.
//
// Reader options enforce line and statement limits for untrusted input.
package rdf
