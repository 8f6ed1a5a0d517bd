// Package rdfparquet stores RDF statements in Parquet files. Each row holds
// the N-Triples text of one statement's terms; each written batch becomes one
// row group.
package rdfparquet

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/geoknoesis/rdf-batch/rdf"
)

// Row is the Parquet record for one statement. Graph is empty for
// statements without a graph name.
type Row struct {
	Subject   string `parquet:"subject"`
	Predicate string `parquet:"predicate,dict"`
	Object    string `parquet:"object"`
	Graph     string `parquet:"graph,dict"`
}

// RowOf converts a statement to a Row.
func RowOf(q rdf.Quad) Row {
	return Row{
		Subject:   rdf.FormatTerm(q.S),
		Predicate: rdf.FormatTerm(q.P),
		Object:    rdf.FormatTerm(q.O),
		Graph:     rdf.FormatTerm(q.G),
	}
}

// Quad converts a Row back to a statement.
func (r Row) Quad() (rdf.Quad, error) {
	var q rdf.Quad
	var err error
	if q.S, err = rdf.ParseTerm(r.Subject); err != nil {
		return rdf.Quad{}, fmt.Errorf("subject: %w", err)
	}
	p, err := rdf.ParseTerm(r.Predicate)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("predicate: %w", err)
	}
	iri, ok := p.(rdf.IRI)
	if !ok {
		return rdf.Quad{}, fmt.Errorf("predicate: %w: %s", rdf.ErrInvalidTerm, r.Predicate)
	}
	q.P = iri
	if q.O, err = rdf.ParseTerm(r.Object); err != nil {
		return rdf.Quad{}, fmt.Errorf("object: %w", err)
	}
	if r.Graph != "" {
		if q.G, err = rdf.ParseTerm(r.Graph); err != nil {
			return rdf.Quad{}, fmt.Errorf("graph: %w", err)
		}
	}
	return q, nil
}

// Writer writes statement batches as row groups.
type Writer struct {
	w    *parquet.GenericWriter[Row]
	rows int64
}

// NewWriter returns a writer that emits a Parquet file to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: parquet.NewGenericWriter[Row](w)}
}

// WriteBatch writes quads as one row group. An empty batch writes nothing.
func (w *Writer) WriteBatch(quads []rdf.Quad) error {
	if len(quads) == 0 {
		return nil
	}
	rows := make([]Row, len(quads))
	for i, q := range quads {
		rows[i] = RowOf(q)
	}
	if _, err := w.w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush row group: %w", err)
	}
	w.rows += int64(len(rows))
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Close writes the file footer. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

type columns struct {
	subject, predicate, object, graph int
}

func detectColumns(schema *parquet.Schema) (columns, error) {
	cols := columns{subject: -1, predicate: -1, object: -1, graph: -1}
	for i, field := range schema.Fields() {
		switch field.Name() {
		case "subject":
			cols.subject = i
		case "predicate":
			cols.predicate = i
		case "object":
			cols.object = i
		case "graph":
			cols.graph = i
		}
	}
	if cols.subject < 0 || cols.predicate < 0 || cols.object < 0 {
		return cols, errors.New("parquet schema missing subject, predicate or object column")
	}
	return cols, nil
}

// Read streams the statements of a Parquet file to handler in file order.
func Read(ctx context.Context, r io.ReaderAt, size int64, handler rdf.Handler) error {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return fmt.Errorf("open parquet file: %w", err)
	}
	cols, err := detectColumns(file.Schema())
	if err != nil {
		return err
	}

	buf := make([]parquet.Row, 1024)
	for _, rowGroup := range file.RowGroups() {
		if err := readRowGroup(ctx, rowGroup, cols, buf, handler); err != nil {
			return err
		}
	}
	return nil
}

func readRowGroup(ctx context.Context, rowGroup parquet.RowGroup, cols columns, buf []parquet.Row, handler rdf.Handler) error {
	rows := rowGroup.Rows()
	defer rows.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			q, convErr := toRow(row, cols).Quad()
			if convErr != nil {
				return convErr
			}
			if herr := handler(q); herr != nil {
				return herr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read parquet rows: %w", err)
		}
	}
}

func toRow(row parquet.Row, cols columns) Row {
	var out Row
	for _, val := range row {
		if val.IsNull() {
			continue
		}
		switch val.Column() {
		case cols.subject:
			out.Subject = val.String()
		case cols.predicate:
			out.Predicate = val.String()
		case cols.object:
			out.Object = val.String()
		case cols.graph:
			out.Graph = val.String()
		}
	}
	return out
}
