package graph

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/geoknoesis/rdf-batch/rdf"
)

var (
	_ Graph       = (*MemoryGraph)(nil)
	_ Conjunctive = (*MemoryGraph)(nil)
	_ Remover     = (*MemoryGraph)(nil)
	_ Updater     = (*MemoryGraph)(nil)
)

// MemoryGraph is an in-memory statement set. Reads return statements in
// insertion order. It is safe for concurrent use.
type MemoryGraph struct {
	mu          sync.RWMutex
	identifier  rdf.Term
	conjunctive bool
	quads       []rdf.Quad
	index       map[uint64][]int
}

// MemoryOption configures a MemoryGraph.
type MemoryOption func(*MemoryGraph)

// MemoryIdentifier sets the graph identifier. The default is a fresh blank node.
func MemoryIdentifier(id rdf.Term) MemoryOption {
	return func(m *MemoryGraph) {
		m.identifier = id
	}
}

// MemoryConjunctive makes the graph accept statements for any graph name.
func MemoryConjunctive() MemoryOption {
	return func(m *MemoryGraph) {
		m.conjunctive = true
	}
}

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph(opts ...MemoryOption) *MemoryGraph {
	m := &MemoryGraph{index: make(map[uint64][]int)}
	for _, opt := range opts {
		opt(m)
	}
	if m.identifier == nil {
		m.identifier = rdf.BlankNode{ID: uuid.NewString()}
	}
	return m
}

func (m *MemoryGraph) Identifier() rdf.Term { return m.identifier }

func (m *MemoryGraph) Conjunctive() bool { return m.conjunctive }

func (m *MemoryGraph) Add(ctx context.Context, q rdf.Quad) error {
	return m.AddN(ctx, []rdf.Quad{q})
}

// AddN inserts quads, skipping duplicates and statements for other graphs
// when the graph is not conjunctive.
func (m *MemoryGraph) AddN(ctx context.Context, quads []rdf.Quad) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range quads {
		q, ok := contextOf(m, m.identifier, q)
		if !ok {
			continue
		}
		h := quadHash(q)
		if m.find(h, q) >= 0 {
			continue
		}
		m.index[h] = append(m.index[h], len(m.quads))
		m.quads = append(m.quads, q)
	}
	return nil
}

// Remove deletes q if present.
func (m *MemoryGraph) Remove(ctx context.Context, q rdf.Quad) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q, ok := contextOf(m, m.identifier, q)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := m.find(quadHash(q), q)
	if pos < 0 {
		return nil
	}
	m.quads = append(m.quads[:pos], m.quads[pos+1:]...)
	m.reindex()
	return nil
}

// Contains reports whether q is stored. A nil graph name means Identifier().
func (m *MemoryGraph) Contains(q rdf.Quad) bool {
	q, ok := contextOf(m, m.identifier, q)
	if !ok {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(quadHash(q), q) >= 0
}

// Triples returns the distinct triples matching p.
func (m *MemoryGraph) Triples(ctx context.Context, p Pattern) ([]rdf.Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []rdf.Triple
	seen := make(map[rdf.Triple]struct{})
	for _, q := range m.quads {
		if !p.Matches(q) {
			continue
		}
		t := q.ToTriple()
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Quads returns a copy of all stored statements.
func (m *MemoryGraph) Quads() []rdf.Quad {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]rdf.Quad, len(m.quads))
	copy(out, m.quads)
	return out
}

func (m *MemoryGraph) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quads), nil
}

// Update parses and applies a SPARQL Update data request.
func (m *MemoryGraph) Update(ctx context.Context, request string) error {
	update, err := rdf.ParseUpdate(request)
	if err != nil {
		return err
	}
	return ApplyUpdate(ctx, m, update)
}

func (m *MemoryGraph) find(h uint64, q rdf.Quad) int {
	for _, pos := range m.index[h] {
		if m.quads[pos] == q {
			return pos
		}
	}
	return -1
}

func (m *MemoryGraph) reindex() {
	clear(m.index)
	for pos, q := range m.quads {
		h := quadHash(q)
		m.index[h] = append(m.index[h], pos)
	}
}

// quadHash keys a statement by its N-Quads terms. Collisions are resolved
// by comparing the stored quads.
func quadHash(q rdf.Quad) uint64 {
	d := xxhash.New()
	for _, term := range [...]rdf.Term{q.S, q.P, q.O, q.G} {
		_, _ = d.WriteString(rdf.FormatTerm(term))
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
