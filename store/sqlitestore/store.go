// Package sqlitestore is a graph.Graph backed by a SQLite quads table.
// Terms are stored in their N-Triples form, so any term round-trips exactly.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geoknoesis/rdf-batch/graph"
	"github.com/geoknoesis/rdf-batch/internal/logctx"
	"github.com/geoknoesis/rdf-batch/rdf"
)

// DefaultGraph is the identifier used when Config.Graph is nil.
var DefaultGraph = rdf.IRI{Value: "urn:x-rdf-batch:default"}

var (
	_ graph.Graph       = (*Store)(nil)
	_ graph.Conjunctive = (*Store)(nil)
	_ graph.Remover     = (*Store)(nil)
	_ graph.Updater     = (*Store)(nil)
)

// Config holds configuration for the SQLite store.
type Config struct {
	// Path is the database file.
	Path string
	// Graph is the store identifier. Defaults to DefaultGraph.
	Graph rdf.Term
	// Conjunctive makes the store keep statements for any graph name.
	Conjunctive bool
	// Synchronous sets the SQLite synchronous pragma: OFF, NORMAL or FULL.
	Synchronous string
	// CacheSizeKB is the page cache size in KB.
	CacheSizeKB int
}

// DefaultConfig returns a configuration for path with the default identifier.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Graph:       DefaultGraph,
		Synchronous: "NORMAL",
		CacheSizeKB: 65536,
	}
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	switch c.Synchronous {
	case "", "OFF", "NORMAL", "FULL":
	default:
		return fmt.Errorf("invalid synchronous value %q: must be OFF, NORMAL, or FULL", c.Synchronous)
	}
	if c.CacheSizeKB < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.CacheSizeKB)
	}
	if _, ok := c.Graph.(rdf.Literal); ok {
		return fmt.Errorf("graph identifier must be an IRI or blank node, got literal %s", c.Graph)
	}
	return nil
}

// Store is a SQLite-backed statement sink.
type Store struct {
	db          *sql.DB
	identifier  rdf.Term
	conjunctive bool
}

// Open creates or opens the database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Graph == nil {
		cfg.Graph = DefaultGraph
	}
	if cfg.Synchronous == "" {
		cfg.Synchronous = "NORMAL"
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA synchronous=%s", cfg.Synchronous),
		"PRAGMA temp_store=MEMORY",
	}
	if cfg.CacheSizeKB > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size=-%d", cfg.CacheSizeKB))
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma %q: %w", pragma, err)
		}
	}
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger := logctx.FromContext(ctx)
	logger.Debug().
		Str("db_path", cfg.Path).
		Str("graph", rdf.FormatTerm(cfg.Graph)).
		Bool("conjunctive", cfg.Conjunctive).
		Msg("opened SQLite store")

	return &Store{db: db, identifier: cfg.Graph, conjunctive: cfg.Conjunctive}, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	const createQuads = `
		CREATE TABLE IF NOT EXISTS quads (
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object TEXT NOT NULL,
			graph TEXT NOT NULL,
			PRIMARY KEY (subject, predicate, object, graph)
		)
	`
	const createGraphIndex = `CREATE INDEX IF NOT EXISTS quads_graph ON quads (graph)`

	if _, err := db.ExecContext(ctx, createQuads); err != nil {
		return fmt.Errorf("create quads table: %w", err)
	}
	if _, err := db.ExecContext(ctx, createGraphIndex); err != nil {
		return fmt.Errorf("create graph index: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Identifier() rdf.Term { return s.identifier }

func (s *Store) Conjunctive() bool { return s.conjunctive }

func (s *Store) Add(ctx context.Context, q rdf.Quad) error {
	return s.AddN(ctx, []rdf.Quad{q})
}

// AddN inserts quads in one transaction. Existing statements are ignored.
func (s *Store) AddN(ctx context.Context, quads []rdf.Quad) error {
	if len(quads) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO quads (subject, predicate, object, graph) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quads {
		q, ok := s.normalize(q)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, encodeQuad(q)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Remove deletes q if present.
func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	q, ok := s.normalize(q)
	if !ok {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM quads WHERE subject = ? AND predicate = ? AND object = ? AND graph = ?`,
		encodeQuad(q)...)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	return nil
}

// Triples returns the distinct triples matching p in insertion order.
func (s *Store) Triples(ctx context.Context, p graph.Pattern) ([]rdf.Triple, error) {
	var (
		where []string
		args  []interface{}
	)
	for _, field := range []struct {
		column string
		term   rdf.Term
	}{
		{"subject", p.S},
		{"predicate", p.P},
		{"object", p.O},
		{"graph", p.G},
	} {
		if field.term == nil {
			continue
		}
		where = append(where, field.column+" = ?")
		args = append(args, rdf.FormatTerm(field.term))
	}

	query := `SELECT subject, predicate, object FROM quads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` GROUP BY subject, predicate, object ORDER BY MIN(rowid)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	var out []rdf.Triple
	for rows.Next() {
		var subject, predicate, object string
		if err := rows.Scan(&subject, &predicate, &object); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		t, err := decodeTriple(subject, predicate, object)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triples: %w", err)
	}
	return out, nil
}

// Len returns the number of stored statements.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	return n, nil
}

// Update parses and applies a SPARQL Update data request.
func (s *Store) Update(ctx context.Context, request string) error {
	update, err := rdf.ParseUpdate(request)
	if err != nil {
		return err
	}
	return graph.ApplyUpdate(ctx, s, update)
}

func (s *Store) normalize(q rdf.Quad) (rdf.Quad, bool) {
	if q.G == nil {
		q.G = s.identifier
		return q, true
	}
	return q, s.conjunctive || q.G == s.identifier
}

func encodeQuad(q rdf.Quad) []interface{} {
	return []interface{}{
		rdf.FormatTerm(q.S),
		rdf.FormatTerm(q.P),
		rdf.FormatTerm(q.O),
		rdf.FormatTerm(q.G),
	}
}

func decodeTriple(subject, predicate, object string) (rdf.Triple, error) {
	s, err := rdf.ParseTerm(subject)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("decode subject: %w", err)
	}
	p, err := rdf.ParseTerm(predicate)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("decode predicate: %w", err)
	}
	iri, ok := p.(rdf.IRI)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("decode predicate: %w: %s", rdf.ErrInvalidTerm, predicate)
	}
	o, err := rdf.ParseTerm(object)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("decode object: %w", err)
	}
	return rdf.Triple{S: s, P: iri, O: o}, nil
}
