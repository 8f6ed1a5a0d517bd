package rdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readAll(t *testing.T, input string, format Format, opts ...Option) ([]Quad, error) {
	t.Helper()
	reader, err := NewReader(strings.NewReader(input), format, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()
	var out []Quad
	for {
		q, err := reader.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, q)
	}
}

func TestNTriplesDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"missing object":  "<http://example.org/s> <http://example.org/p> .\n",
		"missing dot":     "<http://example.org/s> <http://example.org/p> <http://example.org/o>\n",
		"literal subject": "\"s\" <http://example.org/p> <http://example.org/o> .\n",
		"trailing data":   "<http://example.org/s> <http://example.org/p> <http://example.org/o> . x\n",
		"bad iri":         "<http://example.org/s t> <http://example.org/p> <http://example.org/o> .\n",
		"bad escape":      "<http://example.org/s> <http://example.org/p> \"\\q\" .\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readAll(t, input, FormatNTriples)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Line != 1 {
				t.Fatalf("expected line 1, got %d", parseErr.Line)
			}
		})
	}
}

func TestNTriplesRejectGraphTerm(t *testing.T) {
	line := "<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .\n"
	if _, err := readAll(t, line, FormatNTriples); err == nil {
		t.Fatal("expected error for graph term in ntriples")
	}
	quads, err := readAll(t, line, FormatNQuads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quads) != 1 || quads[0].G != (IRI{Value: "http://example.org/g"}) {
		t.Fatalf("unexpected quads: %v", quads)
	}
}

func TestNTriplesDecodeTerms(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"_:b1 <http://example.org/p> \"v\"@en .",
		"<http://example.org/s> <http://example.org/p> \"1\"^^<http://example.org/dt> .",
		"<http://example.org/s> <http://example.org/p> \"a\\n\\u00e9\" . # trailing",
		"<< <http://example.org/s> <http://example.org/p> <http://example.org/o> >> <http://example.org/p2> _:b2.",
	}, "\n")
	quads, err := readAll(t, input, FormatNTriples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Quad{
		{S: BlankNode{ID: "b1"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "v", Lang: "en"}},
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "1", Datatype: IRI{Value: "http://example.org/dt"}}},
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "a\né"}},
		{
			S: TripleTerm{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: IRI{Value: "http://example.org/o"}},
			P: IRI{Value: "http://example.org/p2"},
			O: BlankNode{ID: "b2"},
		},
	}
	if diff := cmp.Diff(want, quads); diff != "" {
		t.Fatalf("decoded quads mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderLimits(t *testing.T) {
	line := "<http://example.org/s> <http://example.org/p> \"" + strings.Repeat("x", 200) + "\" .\n"
	_, err := readAll(t, line, FormatNTriples, OptMaxLineBytes(64))
	if !errors.Is(err, ErrLineTooLong) || Code(err) != ErrCodeLineTooLong {
		t.Fatalf("expected line limit error, got %v", err)
	}

	input := strings.Repeat("<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n", 3)
	quads, err := readAll(t, input, FormatNTriples, OptMaxStatements(2))
	if !errors.Is(err, ErrStatementLimitExceeded) {
		t.Fatalf("expected statement limit error, got %v", err)
	}
	if len(quads) != 2 {
		t.Fatalf("expected 2 statements before the limit, got %d", len(quads))
	}
}

func TestReaderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := readAll(t, "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n", FormatNTriples, OptContext(ctx))
	if !errors.Is(err, context.Canceled) || Code(err) != ErrCodeContextCanceled {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestNQuadsRoundTrip(t *testing.T) {
	quads := []Quad{
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "line\n\"quoted\"\\"}},
		{S: BlankNode{ID: "b0"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "5", Datatype: IRI{Value: "http://www.w3.org/2001/XMLSchema#integer"}}, G: IRI{Value: "http://example.org/g"}},
		{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "hello", Lang: "en-GB"}, G: BlankNode{ID: "g1"}},
	}
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, FormatNQuads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range quads {
		if err := writer.Write(q); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, err := readAll(t, buf.String(), FormatNQuads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(quads, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNTriplesWriterDropsGraph(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, FormatNTriples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := Quad{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: IRI{Value: "http://example.org/o"}, G: IRI{Value: "http://example.org/g"}}
	if err := writer.Write(q); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Write(Quad{}); err == nil {
		t.Fatal("expected error for empty quad")
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := buf.String(); got != "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestParseTermAndFormatTerm(t *testing.T) {
	terms := []Term{
		IRI{Value: "http://example.org/a"},
		BlankNode{ID: "x1"},
		Literal{Lexical: "plain"},
		Literal{Lexical: "tab\there", Lang: "fr"},
		Literal{Lexical: "v", Datatype: IRI{Value: "http://www.w3.org/2001/XMLSchema#string"}},
		TripleTerm{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: Literal{Lexical: "o"}},
	}
	for _, term := range terms {
		text := FormatTerm(term)
		parsed, err := ParseTerm(text)
		if err != nil {
			t.Fatalf("ParseTerm(%q): %v", text, err)
		}
		if parsed != term {
			t.Fatalf("ParseTerm(%q) = %#v, want %#v", text, parsed, term)
		}
	}
	if FormatTerm(nil) != "" {
		t.Fatal("expected empty rendering for nil term")
	}
	for _, bad := range []string{"", "plain", "<http://example.org/a> extra", "\"open"} {
		if _, err := ParseTerm(bad); !errors.Is(err, ErrInvalidTerm) {
			t.Fatalf("ParseTerm(%q) expected ErrInvalidTerm, got %v", bad, err)
		}
	}
}

func TestParseHandler(t *testing.T) {
	input := "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n<http://example.org/s> <http://example.org/p> <http://example.org/o2> .\n"
	var seen int
	stop := errors.New("stop")
	err := Parse(context.Background(), strings.NewReader(input), FormatNTriples, func(q Quad) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) || seen != 1 {
		t.Fatalf("expected handler error after one statement, got %v (%d)", err, seen)
	}

	if _, err := NewReader(strings.NewReader(""), Format("turtle")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if _, err := NewWriter(io.Discard, FormatJSONLD); Code(err) != ErrCodeUnsupportedFormat {
		t.Fatalf("expected unsupported format code, got %v", err)
	}
}

func TestNTriplesRejectsInvalidUTF8(t *testing.T) {
	inputs := []string{
		"<http://example.org/s> <http://example.org/p> \"\xff\" .\n",
		"<http://example.org/\xff> <http://example.org/p> \"ok\" .\n",
	}
	for _, input := range inputs {
		_, err := readAll(t, input, FormatNTriples)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError for %q, got %v", input, err)
		}
		if !strings.Contains(err.Error(), "invalid UTF-8") {
			t.Fatalf("unexpected message: %v", err)
		}
	}
	if _, err := ParseTerm("\"\xff\""); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("expected ErrInvalidTerm, got %v", err)
	}
}
