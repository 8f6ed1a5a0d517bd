package rdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONLDParseGraph(t *testing.T) {
	input := `{"@context":{"ex":"http://example.org/"},"@graph":[{"@id":"ex:s","ex:p":{"@id":"ex:o"},"ex:name":{"@value":"hi","@language":"en"}}]}`
	quads, err := readAll(t, input, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Quad{
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/name"}, O: Literal{Lexical: "hi", Lang: "en"}},
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: IRI{Value: "http://example.org/o"}},
	}
	if diff := cmp.Diff(want, quads); diff != "" {
		t.Fatalf("decoded quads mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONLDNamedGraphsAndLiterals(t *testing.T) {
	input := `{
	  "@context": {"ex": "http://example.org/"},
	  "@id": "ex:g",
	  "@graph": [
	    {"@id": "ex:s", "ex:count": 3, "ex:label": "plain"}
	  ]
	}`
	quads, err := readAll(t, input, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := IRI{Value: "http://example.org/g"}
	want := []Quad{
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/count"}, O: Literal{Lexical: "3", Datatype: IRI{Value: "http://www.w3.org/2001/XMLSchema#integer"}}, G: g},
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/label"}, O: Literal{Lexical: "plain"}, G: g},
	}
	if diff := cmp.Diff(want, quads); diff != "" {
		t.Fatalf("decoded quads mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONLDBlankSubject(t *testing.T) {
	input := `{"@context":{"ex":"http://example.org/"},"ex:p":"v"}`
	quads, err := readAll(t, input, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected one statement, got %d", len(quads))
	}
	if _, ok := quads[0].S.(BlankNode); !ok {
		t.Fatalf("expected blank node subject, got %#v", quads[0].S)
	}
}

func TestJSONLDErrors(t *testing.T) {
	_, err := NewReader(strings.NewReader(`{"@context":`), FormatJSONLD)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Format != "jsonld" {
		t.Fatalf("expected jsonld parse error, got %v", err)
	}

	input := `{"@context":{"ex":"http://example.org/"},"@graph":[{"@id":"ex:s1","ex:p":"v1"},{"@id":"ex:s2","ex:p":"v2"}]}`
	if _, err := NewReader(strings.NewReader(input), FormatJSONLD, OptMaxStatements(1)); !errors.Is(err, ErrStatementLimitExceeded) {
		t.Fatalf("expected statement limit error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader(strings.NewReader(input), FormatJSONLD, OptContext(ctx)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestJSONLDBaseIRI(t *testing.T) {
	input := `{"@id":"doc/s","http://example.org/p":{"@id":"o"}}`
	quads, err := readAll(t, input, FormatJSONLD, OptBaseIRI("http://example.org/base/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected one statement, got %d", len(quads))
	}
	if quads[0].S != (IRI{Value: "http://example.org/base/doc/s"}) || quads[0].O != (IRI{Value: "http://example.org/base/o"}) {
		t.Fatalf("relative IRIs not resolved: %v", quads[0])
	}
}

func TestParseJSONLDHandlerError(t *testing.T) {
	input := `{"@id":"http://example.org/s","http://example.org/p":["a","b"]}`
	stop := errors.New("stop")
	calls := 0
	err := ParseJSONLD(context.Background(), strings.NewReader(input), Options{}, func(Quad) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected handler error after one statement, got %v (%d)", err, calls)
	}
}
