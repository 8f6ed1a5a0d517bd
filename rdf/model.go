package rdf

import "fmt"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
	// TermTriple represents an RDF-star triple term.
	TermTriple
)

// String returns a short name for the kind.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlankNode:
		return "blank"
	case TermLiteral:
		return "literal"
	case TermTriple:
		return "triple"
	default:
		return "unknown"
	}
}

// Term is a value that can appear in RDF statements.
//
// All implementations are comparable value types, so two terms are equal
// exactly when they compare equal with ==.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns the literal in N-Triples form.
func (l Literal) String() string { return FormatTerm(l) }

// TripleTerm is an RDF-star quoted triple term.
type TripleTerm struct {
	S Term
	P IRI
	O Term
}

// Kind returns TermTriple.
func (t TripleTerm) Kind() TermKind { return TermTriple }

// String returns a string representation of the triple term.
func (t TripleTerm) String() string {
	return fmt.Sprintf("<<%s %s %s>>", FormatTerm(t.S), FormatTerm(t.P), FormatTerm(t.O))
}

// Triple is an RDF triple.
type Triple struct {
	S Term
	P IRI
	O Term
}

// ToQuad converts a triple to a quad with no graph.
func (t Triple) ToQuad() Quad {
	return Quad{S: t.S, P: t.P, O: t.O}
}

// ToQuadInGraph converts a triple to a quad in a named graph.
func (t Triple) ToQuadInGraph(graph Term) Quad {
	return Quad{S: t.S, P: t.P, O: t.O, G: graph}
}

// String returns the triple as an N-Triples line without the trailing newline.
func (t Triple) String() string {
	return FormatTerm(t.S) + " " + FormatTerm(t.P) + " " + FormatTerm(t.O) + " ."
}

// Quad is an RDF statement: a triple plus an optional graph name.
// A nil G means the statement carries no graph of its own.
type Quad struct {
	S Term
	P IRI
	O Term
	G Term
}

// IsZero reports whether the quad has no subject/predicate/object.
func (q Quad) IsZero() bool {
	return q.S == nil && q.P.Value == "" && q.O == nil && q.G == nil
}

// ToTriple extracts the triple from a quad (ignores graph).
func (q Quad) ToTriple() Triple {
	return Triple{S: q.S, P: q.P, O: q.O}
}

// InDefaultGraph reports whether the quad has no graph name.
func (q Quad) InDefaultGraph() bool {
	return q.G == nil
}

// InGraph returns a copy of q placed in graph.
func (q Quad) InGraph(graph Term) Quad {
	q.G = graph
	return q
}

// String returns the quad as an N-Quads line without the trailing newline.
func (q Quad) String() string {
	line := FormatTerm(q.S) + " " + FormatTerm(q.P) + " " + FormatTerm(q.O)
	if q.G != nil {
		line += " " + FormatTerm(q.G)
	}
	return line + " ."
}
