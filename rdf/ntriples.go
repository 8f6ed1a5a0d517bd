package rdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type ntDecoder struct {
	reader *bufio.Reader
	opts   Options
	format Format
	line   int
	count  int64
	err    error
}

func newNTDecoder(r io.Reader, format Format, opts Options) *ntDecoder {
	return &ntDecoder{reader: bufio.NewReader(r), opts: opts, format: format}
}

func (d *ntDecoder) Next() (Quad, error) {
	if d.err != nil {
		return Quad{}, d.err
	}
	for {
		if err := d.opts.Context.Err(); err != nil {
			d.err = err
			return Quad{}, err
		}
		line, err := readLineWithLimit(d.reader, d.opts.MaxLineBytes)
		if err != nil {
			if err != io.EOF {
				err = wrapParseError(string(d.format), "", d.line+1, 0, err)
			}
			d.err = err
			return Quad{}, err
		}
		d.line++
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quad, err := parseNTLine(line, d.format)
		if err != nil {
			d.err = wrapParseError(string(d.format), line, d.line, 0, err)
			return Quad{}, d.err
		}
		d.count++
		if d.opts.MaxStatements > 0 && d.count > d.opts.MaxStatements {
			d.err = ErrStatementLimitExceeded
			return Quad{}, d.err
		}
		return quad, nil
	}
}

func (d *ntDecoder) Close() error { return nil }

// readLineWithLimit reads one line including the newline. maxBytes <= 0
// disables the limit.
func readLineWithLimit(reader *bufio.Reader, maxBytes int) (string, error) {
	var buf []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		buf = append(buf, chunk...)
		if maxBytes > 0 && len(buf) > maxBytes {
			return "", ErrLineTooLong
		}
		switch {
		case err == nil:
			return string(buf), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && len(buf) > 0:
			return string(buf), nil
		default:
			return "", err
		}
	}
}

func parseNTLine(line string, format Format) (Quad, error) {
	cursor := &ntCursor{input: line}
	subject, err := cursor.parseTerm(false)
	if err != nil {
		return Quad{}, err
	}
	predicate, err := cursor.parseIRI()
	if err != nil {
		return Quad{}, err
	}
	object, err := cursor.parseTerm(true)
	if err != nil {
		return Quad{}, err
	}

	var graph Term
	cursor.skipWS()
	if !cursor.peek('.') {
		if format != FormatNQuads {
			return Quad{}, cursor.errorf("graph term not allowed in N-Triples")
		}
		graph, err = cursor.parseTerm(false)
		if err != nil {
			return Quad{}, err
		}
		if _, ok := graph.(TripleTerm); ok {
			return Quad{}, cursor.errorf("triple term not allowed as graph name")
		}
	}
	if !cursor.consume('.') {
		return Quad{}, cursor.errorf("expected '.' at end of statement")
	}
	cursor.skipWS()
	if cursor.pos < len(cursor.input) && cursor.input[cursor.pos] != '#' {
		return Quad{}, cursor.errorf("unexpected content after '.'")
	}
	return Quad{S: subject, P: predicate, O: object, G: graph}, nil
}

// ParseTerm parses a single term in N-Triples syntax, e.g. "<http://x>",
// "_:b0" or "\"v\"@en".
func ParseTerm(value string) (Term, error) {
	cursor := &ntCursor{input: value}
	term, err := cursor.parseTerm(true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTerm, err)
	}
	cursor.skipWS()
	if cursor.pos != len(cursor.input) {
		return nil, fmt.Errorf("%w: trailing content in %q", ErrInvalidTerm, value)
	}
	return term, nil
}

type ntCursor struct {
	input string
	pos   int
}

func (c *ntCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *ntCursor) peek(ch byte) bool {
	return c.pos < len(c.input) && c.input[c.pos] == ch
}

func (c *ntCursor) consume(ch byte) bool {
	c.skipWS()
	if c.peek(ch) {
		c.pos++
		return true
	}
	return false
}

func (c *ntCursor) parseTerm(allowLiteral bool) (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of line")
	}
	rest := c.input[c.pos:]
	switch {
	case strings.HasPrefix(rest, "<<"):
		return c.parseTripleTerm()
	case rest[0] == '<':
		return c.parseIRI()
	case strings.HasPrefix(rest, "_:"):
		return c.parseBlankNode()
	case rest[0] == '"':
		if !allowLiteral {
			return nil, c.errorf("literal not allowed here")
		}
		return c.parseLiteral()
	default:
		return nil, c.errorf("unexpected token")
	}
}

func (c *ntCursor) parseIRI() (IRI, error) {
	if !c.consume('<') {
		return IRI{}, c.errorf("expected IRI")
	}
	end := strings.IndexByte(c.input[c.pos:], '>')
	if end < 0 {
		return IRI{}, c.errorf("unterminated IRI")
	}
	raw := c.input[c.pos : c.pos+end]
	c.pos += end + 1
	if !utf8.ValidString(raw) {
		return IRI{}, c.errorf("invalid UTF-8 in IRI")
	}
	if strings.ContainsAny(raw, " \t\"{}|^`") {
		return IRI{}, c.errorf("invalid character in IRI <%s>", raw)
	}
	if strings.IndexByte(raw, '\\') >= 0 {
		value, err := unescapeString(raw)
		if err != nil {
			return IRI{}, c.errorf("%v", err)
		}
		raw = value
	}
	return IRI{Value: raw}, nil
}

func (c *ntCursor) parseBlankNode() (BlankNode, error) {
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
		c.pos++
	}
	// A trailing '.' belongs to the statement, not the label.
	for c.pos > start && c.input[c.pos-1] == '.' {
		c.pos--
	}
	if start == c.pos {
		return BlankNode{}, c.errorf("blank node id missing")
	}
	return BlankNode{ID: c.input[start:c.pos]}, nil
}

func (c *ntCursor) parseLiteral() (Literal, error) {
	c.pos++ // opening quote
	start := c.pos
	escaped := false
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '\\' {
			escaped = true
			c.pos += 2
			continue
		}
		if ch == '"' {
			break
		}
		c.pos++
	}
	if c.pos >= len(c.input) {
		return Literal{}, c.errorf("unterminated literal")
	}
	lexical := c.input[start:c.pos]
	if !utf8.ValidString(lexical) {
		return Literal{}, c.errorf("invalid UTF-8 in literal")
	}
	c.pos++ // closing quote
	if escaped {
		value, err := unescapeString(lexical)
		if err != nil {
			return Literal{}, c.errorf("%v", err)
		}
		lexical = value
	}

	rest := c.input[c.pos:]
	switch {
	case strings.HasPrefix(rest, "@"):
		c.pos++
		langStart := c.pos
		for c.pos < len(c.input) && isLangChar(c.input[c.pos]) {
			c.pos++
		}
		if langStart == c.pos {
			return Literal{}, c.errorf("empty language tag")
		}
		return Literal{Lexical: lexical, Lang: c.input[langStart:c.pos]}, nil
	case strings.HasPrefix(rest, "^^"):
		c.pos += 2
		dt, err := c.parseIRI()
		if err != nil {
			return Literal{}, err
		}
		return Literal{Lexical: lexical, Datatype: dt}, nil
	}
	return Literal{Lexical: lexical}, nil
}

func (c *ntCursor) parseTripleTerm() (Term, error) {
	c.pos += 2
	subject, err := c.parseTerm(false)
	if err != nil {
		return nil, err
	}
	predicate, err := c.parseIRI()
	if err != nil {
		return nil, err
	}
	object, err := c.parseTerm(true)
	if err != nil {
		return nil, err
	}
	c.skipWS()
	if !strings.HasPrefix(c.input[c.pos:], ">>") {
		return nil, c.errorf("expected '>>'")
	}
	c.pos += 2
	return TripleTerm{S: subject, P: predicate, O: object}, nil
}

func (c *ntCursor) errorf(format string, args ...interface{}) error {
	return &ParseError{Format: "ntriples", Column: c.pos + 1, Err: fmt.Errorf(format, args...)}
}

func isTermDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '<', '"', '>':
		return true
	default:
		return false
	}
}

func isLangChar(ch byte) bool {
	return ch == '-' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// unescapeString decodes ECHAR and UCHAR escapes.
func unescapeString(s string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			builder.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("unterminated escape")
		}
		i++
		switch s[i] {
		case 't':
			builder.WriteByte('\t')
		case 'b':
			builder.WriteByte('\b')
		case 'n':
			builder.WriteByte('\n')
		case 'r':
			builder.WriteByte('\r')
		case 'f':
			builder.WriteByte('\f')
		case '"', '\'', '\\':
			builder.WriteByte(s[i])
		case 'u', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			if i+width > len(s)-1 {
				return "", fmt.Errorf("invalid escape sequence")
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", fmt.Errorf("invalid escape sequence")
			}
			builder.WriteRune(rune(code))
			i += width
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c", s[i])
		}
	}
	return builder.String(), nil
}

// FormatTerm renders a term in N-Triples syntax. A nil term renders as "".
func FormatTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return "<" + value.Value + ">"
	case BlankNode:
		return "_:" + value.ID
	case Literal:
		out := `"` + escapeLiteral(value.Lexical) + `"`
		if value.Lang != "" {
			return out + "@" + value.Lang
		}
		if value.Datatype.Value != "" {
			return out + "^^<" + value.Datatype.Value + ">"
		}
		return out
	case TripleTerm:
		return value.String()
	default:
		return ""
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

type ntEncoder struct {
	writer *bufio.Writer
	format Format
	err    error
}

func newNTEncoder(w io.Writer, format Format) *ntEncoder {
	return &ntEncoder{writer: bufio.NewWriter(w), format: format}
}

func (e *ntEncoder) Write(q Quad) error {
	if e.err != nil {
		return e.err
	}
	if q.S == nil || q.P.Value == "" || q.O == nil {
		return fmt.Errorf("%s: missing statement fields", e.format)
	}
	if e.format == FormatNTriples {
		q.G = nil
	}
	if _, err := e.writer.WriteString(q.String() + "\n"); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *ntEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	return e.writer.Flush()
}

func (e *ntEncoder) Close() error {
	return e.Flush()
}
