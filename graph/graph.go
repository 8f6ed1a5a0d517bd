package graph

import (
	"context"
	"iter"

	"github.com/geoknoesis/rdf-batch/rdf"
)

// Graph is a statement sink with bulk insert and basic reads.
//
// Add and AddN apply the sink's own context contract: statements with a nil
// graph name belong to Identifier(); a non-conjunctive sink drops statements
// naming any other graph.
type Graph interface {
	Identifier() rdf.Term
	Add(ctx context.Context, q rdf.Quad) error
	AddN(ctx context.Context, quads []rdf.Quad) error
	Triples(ctx context.Context, p Pattern) ([]rdf.Triple, error)
	Len(ctx context.Context) (int, error)
}

// Conjunctive is implemented by sinks that accept statements for any graph.
type Conjunctive interface {
	Conjunctive() bool
}

// Remover is implemented by sinks that can delete statements.
type Remover interface {
	Remove(ctx context.Context, q rdf.Quad) error
}

// Updater is implemented by sinks that accept SPARQL Update data requests.
type Updater interface {
	Update(ctx context.Context, request string) error
}

// SeqAdder is implemented by graphs that can consume a statement sequence
// without materializing it.
type SeqAdder interface {
	AddSeq(ctx context.Context, seq iter.Seq[rdf.Quad]) error
}

// Pattern selects statements. Nil fields match anything.
type Pattern struct {
	S rdf.Term
	P rdf.Term
	O rdf.Term
	G rdf.Term
}

// Matches reports whether q satisfies the pattern.
func (p Pattern) Matches(q rdf.Quad) bool {
	if p.S != nil && p.S != q.S {
		return false
	}
	if p.P != nil && p.P != rdf.Term(q.P) {
		return false
	}
	if p.O != nil && p.O != q.O {
		return false
	}
	return p.G == nil || p.G == q.G
}

// IsConjunctive reports whether g accepts statements for any graph.
func IsConjunctive(g Graph) bool {
	c, ok := g.(Conjunctive)
	return ok && c.Conjunctive()
}

// contextOf resolves the graph a statement targets in g: a nil graph name
// means g's own identifier. ok is false when g would drop the statement.
func contextOf(g Graph, identifier rdf.Term, q rdf.Quad) (rdf.Quad, bool) {
	if q.G == nil {
		q.G = identifier
		return q, true
	}
	if q.G == identifier {
		return q, true
	}
	return q, IsConjunctive(g)
}
