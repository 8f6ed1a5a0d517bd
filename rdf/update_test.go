package rdf

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseUpdateInsertData(t *testing.T) {
	request := `
PREFIX ex: <http://example.org/>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
# three statements in the default graph
INSERT DATA {
  ex:s a ex:Thing ;
       ex:name "Alice"@en, 'Al' ;
       ex:age 42 .
  _:b1 ex:score 4.5e1 ; ex:ratio -0.5 ; ex:ok true ;
  ex:note """multi
line""" ; ex:when "2024-01-01"^^xsd:date .
}`
	update, err := ParseUpdate(request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := IRI{Value: "http://example.org/s"}
	b := BlankNode{ID: "b1"}
	ex := func(local string) IRI { return IRI{Value: "http://example.org/" + local} }
	xsd := func(local string) IRI { return IRI{Value: "http://www.w3.org/2001/XMLSchema#" + local} }
	want := &Update{Operations: []UpdateOperation{{
		Kind: UpdateInsertData,
		Quads: []Quad{
			{S: s, P: IRI{Value: rdfType}, O: ex("Thing")},
			{S: s, P: ex("name"), O: Literal{Lexical: "Alice", Lang: "en"}},
			{S: s, P: ex("name"), O: Literal{Lexical: "Al"}},
			{S: s, P: ex("age"), O: Literal{Lexical: "42", Datatype: xsd("integer")}},
			{S: b, P: ex("score"), O: Literal{Lexical: "4.5e1", Datatype: xsd("double")}},
			{S: b, P: ex("ratio"), O: Literal{Lexical: "-0.5", Datatype: xsd("decimal")}},
			{S: b, P: ex("ok"), O: Literal{Lexical: "true", Datatype: xsd("boolean")}},
			{S: b, P: ex("note"), O: Literal{Lexical: "multi\nline"}},
			{S: b, P: ex("when"), O: Literal{Lexical: "2024-01-01", Datatype: xsd("date")}},
		},
	}}}
	if diff := cmp.Diff(want, update); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
	if update.Count(UpdateInsertData) != 9 || update.Count(UpdateDeleteData) != 0 {
		t.Fatalf("unexpected counts")
	}
}

func TestParseUpdateGraphsAndSequences(t *testing.T) {
	request := `BASE <http://example.org/>
prefix : <http://example.org/ns#>
insert data { <s> :p <o> . GRAPH <g1> { <s> :p "in g1" } } ;
DELETE DATA { GRAPH :g2 { :x :p :y . } <s> :p <o> } ;`
	update, err := ParseUpdate(request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := IRI{Value: "http://example.org/ns#p"}
	want := &Update{Operations: []UpdateOperation{
		{Kind: UpdateInsertData, Quads: []Quad{
			{S: IRI{Value: "http://example.org/s"}, P: p, O: IRI{Value: "http://example.org/o"}},
			{S: IRI{Value: "http://example.org/s"}, P: p, O: Literal{Lexical: "in g1"}, G: IRI{Value: "http://example.org/g1"}},
		}},
		{Kind: UpdateDeleteData, Quads: []Quad{
			{S: IRI{Value: "http://example.org/ns#x"}, P: p, O: IRI{Value: "http://example.org/ns#y"}, G: IRI{Value: "http://example.org/ns#g2"}},
			{S: IRI{Value: "http://example.org/s"}, P: p, O: IRI{Value: "http://example.org/o"}},
		}},
	}}
	if diff := cmp.Diff(want, update); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
	if UpdateDeleteData.String() != "DELETE DATA" {
		t.Fatalf("unexpected kind name %q", UpdateDeleteData)
	}
}

func TestParseUpdateEmpty(t *testing.T) {
	update, err := ParseUpdate("  # nothing\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(update.Operations) != 0 {
		t.Fatalf("expected no operations, got %d", len(update.Operations))
	}
	update, err = ParseUpdate("INSERT DATA {}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(update.Operations) != 1 || len(update.Operations[0].Quads) != 0 {
		t.Fatalf("expected one empty operation, got %+v", update.Operations)
	}
}

func TestParseUpdateErrors(t *testing.T) {
	cases := map[string]string{
		"unknown operation":    "LOAD <http://example.org/data>",
		"missing DATA":         "INSERT { <s> <p> <o> }",
		"undefined prefix":     "INSERT DATA { ex:s ex:p ex:o }",
		"variable":             "INSERT DATA { ?s <http://example.org/p> <http://example.org/o> }",
		"unterminated block":   "INSERT DATA { <http://example.org/s> <http://example.org/p> <http://example.org/o> .",
		"blank node in delete": "DELETE DATA { _:b <http://example.org/p> <http://example.org/o> }",
		"literal subject":      `INSERT DATA { "s" <http://example.org/p> <http://example.org/o> }`,
		"missing separator":    "INSERT DATA { } INSERT DATA { }",
		"collection":           "INSERT DATA { <http://example.org/s> <http://example.org/p> ( 1 2 ) }",
		"unterminated string":  `INSERT DATA { <http://example.org/s> <http://example.org/p> "open }`,
	}
	for name, request := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUpdate(request)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Format != "sparql-update" || parseErr.Line != 1 || parseErr.Column == 0 {
				t.Fatalf("unexpected error position: %+v", parseErr)
			}
		})
	}
}

func TestParseUpdateErrorPosition(t *testing.T) {
	_, err := ParseUpdate("PREFIX ex: <http://example.org/>\nINSERT DATA {\n  ex:s ex:p nope:o .\n}")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Line != 3 || parseErr.Column != 13 {
		t.Fatalf("expected 3:13, got %d:%d", parseErr.Line, parseErr.Column)
	}
	if !strings.Contains(err.Error(), `undefined prefix "nope"`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestParseUpdateBlankNodeLabelsKeepCase(t *testing.T) {
	update, err := ParseUpdate(`insert data { _:Ab <http://example.org/p> _:aB . _:x <http://example.org/p> _:X. }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := IRI{Value: "http://example.org/p"}
	want := &Update{Operations: []UpdateOperation{{
		Kind: UpdateInsertData,
		Quads: []Quad{
			{S: BlankNode{ID: "Ab"}, P: p, O: BlankNode{ID: "aB"}},
			{S: BlankNode{ID: "x"}, P: p, O: BlankNode{ID: "X"}},
		},
	}}}
	if diff := cmp.Diff(want, update); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUpdateRejectsInvalidUTF8(t *testing.T) {
	_, err := ParseUpdate("INSERT DATA { <http://example.org/s> <http://example.org/p> \"\xff\" }")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
