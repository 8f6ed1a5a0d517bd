package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/geoknoesis/rdf-batch/rdf"
)

const sampleNQuads = `<http://example.org/s> <http://example.org/p> "1" .
<http://example.org/s> <http://example.org/p> "2" <http://example.org/g> .
<http://example.org/s> <http://example.org/p> "3" .
<http://example.org/s> <http://example.org/p> "4" <http://example.org/g> .
<http://example.org/s> <http://example.org/p> "5" .
`

func TestLoadThroughBatchGraph(t *testing.T) {
	ctx := context.Background()
	sink := newRecordingSink(MemoryConjunctive())
	var n int
	err := WithBatchAddGraph(ctx, sink, func(b *BatchAddGraph) error {
		var err error
		n, err = Load(ctx, b, strings.NewReader(sampleNQuads), rdf.FormatNQuads)
		return err
	}, OptBufferSize(2), OptBatchAddN(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 statements read, got %d", n)
	}
	if diff := cmp.Diff([]int{2, 2, 1}, sink.calls); diff != "" {
		t.Fatalf("AddN calls (-want +got):\n%s", diff)
	}
	named, err := sink.Triples(ctx, Pattern{G: rdf.IRI{Value: "http://example.org/g"}})
	if err != nil || len(named) != 2 {
		t.Fatalf("expected 2 statements in named graph, got %v, %v", named, err)
	}
}

func TestLoadWithoutSeqAdder(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()
	n, err := Load(ctx, g, strings.NewReader(sampleNQuads), rdf.FormatNQuads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 statements read, got %d", n)
	}
	if got := mustLen(t, g); got != 3 {
		t.Fatalf("expected named-graph statements dropped, got %d", got)
	}
}

func TestLoadReadError(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()
	input := "<http://example.org/s> <http://example.org/p> \"1\" .\nnot a statement\n"
	n, err := Load(ctx, g, strings.NewReader(input), rdf.FormatNTriples)
	var parseErr *rdf.ParseError
	if !errors.As(err, &parseErr) || parseErr.Line != 2 {
		t.Fatalf("expected parse error on line 2, got %v", err)
	}
	if n != 1 || mustLen(t, g) != 1 {
		t.Fatalf("expected the first statement kept, n=%d", n)
	}
	if _, err := Load(ctx, g, strings.NewReader(""), rdf.Format("rdfxml")); !errors.Is(err, rdf.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryGraph(MemoryConjunctive())
	if _, err := Load(ctx, src, strings.NewReader(sampleNQuads), rdf.FormatNQuads); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dst := newRecordingSink()
	b, err := NewBatchAddGraph(dst, OptBufferSize(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := Copy(ctx, b, src, Pattern{G: rdf.IRI{Value: "http://example.org/g"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || mustLen(t, dst) != 2 {
		t.Fatalf("expected 2 statements copied, got %d", n)
	}
	for _, q := range dst.Quads() {
		if q.G != dst.Identifier() {
			t.Fatalf("copied statement not in destination graph: %v", q)
		}
	}
}
