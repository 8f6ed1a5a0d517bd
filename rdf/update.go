package rdf

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const updateFormat = "sparql-update"

const (
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// UpdateKind identifies a SPARQL Update data operation.
type UpdateKind uint8

const (
	// UpdateInsertData is an INSERT DATA operation.
	UpdateInsertData UpdateKind = iota
	// UpdateDeleteData is a DELETE DATA operation.
	UpdateDeleteData
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateInsertData:
		return "INSERT DATA"
	case UpdateDeleteData:
		return "DELETE DATA"
	default:
		return "UNKNOWN"
	}
}

// UpdateOperation is one operation of an update request. Quads outside a
// GRAPH block have a nil G.
type UpdateOperation struct {
	Kind  UpdateKind
	Quads []Quad
}

// Update is a parsed SPARQL Update request.
type Update struct {
	Operations []UpdateOperation
}

// Count returns the number of statements across operations of the given kind.
func (u *Update) Count(kind UpdateKind) int {
	n := 0
	for _, op := range u.Operations {
		if op.Kind == kind {
			n += len(op.Quads)
		}
	}
	return n
}

// ParseUpdate parses the data subset of SPARQL 1.1 Update: PREFIX and BASE
// declarations followed by ';'-separated INSERT DATA and DELETE DATA
// operations, with optional GRAPH blocks.
func ParseUpdate(request string) (*Update, error) {
	p := &updateParser{
		scan:     updateScanner{input: request},
		prefixes: map[string]string{},
	}
	update, err := p.parse()
	if err != nil {
		var perr *updateError
		if errors.As(err, &perr) {
			line, column, text := position(request, perr.pos)
			return nil, &ParseError{Format: updateFormat, Statement: text, Line: line, Column: column, Err: perr.err}
		}
		return nil, &ParseError{Format: updateFormat, Err: err}
	}
	return update, nil
}

type updateError struct {
	pos int
	err error
}

func (e *updateError) Error() string { return e.err.Error() }

// position converts a byte offset to a 1-based line/column and that line's text.
func position(input string, pos int) (int, int, string) {
	pos = min(pos, len(input))
	line := 1 + strings.Count(input[:pos], "\n")
	lineStart := strings.LastIndexByte(input[:pos], '\n') + 1
	lineEnd := strings.IndexByte(input[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(input)
	} else {
		lineEnd += lineStart
	}
	return line, pos - lineStart + 1, input[lineStart:lineEnd]
}

type updateTokenKind int

const (
	tokEOF updateTokenKind = iota
	tokIRIRef
	tokPName
	tokBlankNode
	tokString
	tokLangTag
	tokDatatype
	tokInteger
	tokDecimal
	tokDouble
	tokBoolean
	tokA
	tokKeyword
	tokLBrace
	tokRBrace
	tokDot
	tokSemicolon
	tokComma
)

type updateToken struct {
	kind   updateTokenKind
	lexeme string
	pos    int
}

type updateScanner struct {
	input string
	pos   int
}

func (s *updateScanner) errorf(pos int, format string, args ...interface{}) error {
	return &updateError{pos: pos, err: fmt.Errorf(format, args...)}
}

func (s *updateScanner) skipWSAndComments() {
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		case '#':
			end := strings.IndexByte(s.input[s.pos:], '\n')
			if end < 0 {
				s.pos = len(s.input)
				return
			}
			s.pos += end + 1
		default:
			return
		}
	}
}

func (s *updateScanner) next() (updateToken, error) {
	s.skipWSAndComments()
	start := s.pos
	if s.pos >= len(s.input) {
		return updateToken{kind: tokEOF, pos: start}, nil
	}
	ch := s.input[s.pos]
	switch ch {
	case '{':
		s.pos++
		return updateToken{kind: tokLBrace, lexeme: "{", pos: start}, nil
	case '}':
		s.pos++
		return updateToken{kind: tokRBrace, lexeme: "}", pos: start}, nil
	case ';':
		s.pos++
		return updateToken{kind: tokSemicolon, lexeme: ";", pos: start}, nil
	case ',':
		s.pos++
		return updateToken{kind: tokComma, lexeme: ",", pos: start}, nil
	case '.':
		if s.pos+1 < len(s.input) && isDigit(s.input[s.pos+1]) {
			return s.scanWord()
		}
		s.pos++
		return updateToken{kind: tokDot, lexeme: ".", pos: start}, nil
	case '<':
		end := strings.IndexByte(s.input[s.pos+1:], '>')
		if end < 0 {
			return updateToken{}, s.errorf(start, "unterminated IRI")
		}
		raw := s.input[s.pos+1 : s.pos+1+end]
		if strings.ContainsAny(raw, " \t\r\n\"{}|^`") {
			return updateToken{}, s.errorf(start, "invalid character in IRI <%s>", raw)
		}
		s.pos += end + 2
		return updateToken{kind: tokIRIRef, lexeme: raw, pos: start}, nil
	case '"', '\'':
		return s.scanString()
	case '@':
		s.pos++
		for s.pos < len(s.input) && isLangChar(s.input[s.pos]) {
			s.pos++
		}
		if s.pos == start+1 {
			return updateToken{}, s.errorf(start, "empty language tag")
		}
		return updateToken{kind: tokLangTag, lexeme: s.input[start+1 : s.pos], pos: start}, nil
	case '^':
		if strings.HasPrefix(s.input[s.pos:], "^^") {
			s.pos += 2
			return updateToken{kind: tokDatatype, lexeme: "^^", pos: start}, nil
		}
		return updateToken{}, s.errorf(start, "unexpected '^'")
	case '?', '$':
		return updateToken{}, s.errorf(start, "variables are not allowed in data operations")
	case '[', '(':
		return updateToken{}, s.errorf(start, "anonymous blank nodes and collections are not supported")
	}
	if strings.HasPrefix(s.input[s.pos:], "_:") {
		s.pos += 2
		label := s.scanLabel()
		if label == "" {
			return updateToken{}, s.errorf(start, "blank node id missing")
		}
		return updateToken{kind: tokBlankNode, lexeme: label, pos: start}, nil
	}
	return s.scanWord()
}

func (s *updateScanner) scanString() (updateToken, error) {
	start := s.pos
	quote := s.input[s.pos]
	long := strings.HasPrefix(s.input[s.pos:], strings.Repeat(string(quote), 3))
	if long {
		s.pos += 3
	} else {
		s.pos++
	}
	bodyStart := s.pos
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if ch == '\\' {
			s.pos += 2
			continue
		}
		if !long && (ch == '\n' || ch == '\r') {
			return updateToken{}, s.errorf(start, "newline in string literal")
		}
		if ch == quote {
			if !long {
				body := s.input[bodyStart:s.pos]
				s.pos++
				return s.unescaped(body, start)
			}
			if strings.HasPrefix(s.input[s.pos:], strings.Repeat(string(quote), 3)) {
				// Up to two extra quotes may close a long string.
				for s.pos+3 < len(s.input) && s.input[s.pos+3] == quote {
					s.pos++
				}
				body := s.input[bodyStart:s.pos]
				s.pos += 3
				return s.unescaped(body, start)
			}
		}
		s.pos++
	}
	return updateToken{}, s.errorf(start, "unterminated string literal")
}

func (s *updateScanner) unescaped(body string, start int) (updateToken, error) {
	if !utf8.ValidString(body) {
		return updateToken{}, s.errorf(start, "invalid UTF-8 in string literal")
	}
	if strings.IndexByte(body, '\\') >= 0 {
		value, err := unescapeString(body)
		if err != nil {
			return updateToken{}, s.errorf(start, "%v", err)
		}
		body = value
	}
	return updateToken{kind: tokString, lexeme: body, pos: start}, nil
}

// scanLabel consumes a word as written. A trailing '.' ends the triple
// rather than the word.
func (s *updateScanner) scanLabel() string {
	start := s.pos
	for s.pos < len(s.input) && !isUpdateTerminator(s.input[s.pos]) {
		s.pos++
	}
	for s.pos > start && s.input[s.pos-1] == '.' {
		s.pos--
	}
	return s.input[start:s.pos]
}

func (s *updateScanner) scanWord() (updateToken, error) {
	start := s.pos
	word := s.scanLabel()
	switch {
	case word == "" && start >= len(s.input):
		return updateToken{}, s.errorf(start, "unexpected end of update")
	case word == "":
		return updateToken{}, s.errorf(start, "unexpected character %q", s.input[start])
	case word == "a":
		return updateToken{kind: tokA, lexeme: word, pos: start}, nil
	case word == "true" || word == "false":
		return updateToken{kind: tokBoolean, lexeme: word, pos: start}, nil
	case strings.Contains(word, ":"):
		return updateToken{kind: tokPName, lexeme: word, pos: start}, nil
	}
	if kind, ok := numericKind(word); ok {
		return updateToken{kind: kind, lexeme: word, pos: start}, nil
	}
	return updateToken{kind: tokKeyword, lexeme: strings.ToUpper(word), pos: start}, nil
}

func isUpdateTerminator(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '{', '}', ';', ',', '<', '"', '\'', '#', '@', '^', '(', ')', '[', ']':
		return true
	default:
		return false
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// numericKind classifies SPARQL INTEGER, DECIMAL and DOUBLE lexemes.
func numericKind(word string) (updateTokenKind, bool) {
	body := strings.TrimLeft(word, "+-")
	if len(word)-len(body) > 1 || body == "" {
		return 0, false
	}
	mantissa, exponent, hasExp := strings.Cut(strings.ToLower(body), "e")
	intPart, fracPart, hasDot := strings.Cut(mantissa, ".")
	if !allDigits(intPart) || !allDigits(fracPart) || intPart+fracPart == "" {
		return 0, false
	}
	if hasExp {
		exponent = strings.TrimLeft(exponent, "+-")
		if exponent == "" || !allDigits(exponent) {
			return 0, false
		}
		return tokDouble, true
	}
	if hasDot {
		if fracPart == "" {
			return 0, false
		}
		return tokDecimal, true
	}
	return tokInteger, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

type updateParser struct {
	scan     updateScanner
	tok      updateToken
	peeked   bool
	base     *url.URL
	prefixes map[string]string
	kind     UpdateKind
}

func (p *updateParser) peek() (updateToken, error) {
	if !p.peeked {
		tok, err := p.scan.next()
		if err != nil {
			return updateToken{}, err
		}
		p.tok = tok
		p.peeked = true
	}
	return p.tok, nil
}

func (p *updateParser) advance() (updateToken, error) {
	tok, err := p.peek()
	p.peeked = false
	return tok, err
}

func (p *updateParser) expect(kind updateTokenKind, what string) (updateToken, error) {
	tok, err := p.advance()
	if err != nil {
		return updateToken{}, err
	}
	if tok.kind != kind {
		return updateToken{}, p.scan.errorf(tok.pos, "expected %s, found %q", what, tok.lexeme)
	}
	return tok, nil
}

func (p *updateParser) expectKeyword(word string) error {
	tok, err := p.advance()
	if err != nil {
		return err
	}
	if tok.kind != tokKeyword || tok.lexeme != word {
		return p.scan.errorf(tok.pos, "expected %s, found %q", word, tok.lexeme)
	}
	return nil
}

func (p *updateParser) parse() (*Update, error) {
	update := &Update{}
	for {
		if err := p.parsePrologue(); err != nil {
			return nil, err
		}
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return update, nil
		}
		if tok.kind != tokKeyword || (tok.lexeme != "INSERT" && tok.lexeme != "DELETE") {
			return nil, p.scan.errorf(tok.pos, "expected INSERT DATA or DELETE DATA, found %q", tok.lexeme)
		}
		p.kind = UpdateInsertData
		if tok.lexeme == "DELETE" {
			p.kind = UpdateDeleteData
		}
		if err := p.expectKeyword("DATA"); err != nil {
			return nil, err
		}
		quads, err := p.parseQuadData()
		if err != nil {
			return nil, err
		}
		update.Operations = append(update.Operations, UpdateOperation{Kind: p.kind, Quads: quads})

		tok, err = p.advance()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			return update, nil
		case tokSemicolon:
			continue
		default:
			return nil, p.scan.errorf(tok.pos, "expected ';' between operations, found %q", tok.lexeme)
		}
	}
}

func (p *updateParser) parsePrologue() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.kind != tokKeyword || (tok.lexeme != "PREFIX" && tok.lexeme != "BASE") {
			return nil
		}
		p.peeked = false
		if tok.lexeme == "BASE" {
			iri, err := p.expect(tokIRIRef, "base IRI")
			if err != nil {
				return err
			}
			base, err := url.Parse(iri.lexeme)
			if err != nil {
				return p.scan.errorf(iri.pos, "invalid base IRI: %v", err)
			}
			p.base = base
			continue
		}
		name, err := p.expect(tokPName, "prefix name")
		if err != nil {
			return err
		}
		prefix, local, _ := strings.Cut(name.lexeme, ":")
		if local != "" {
			return p.scan.errorf(name.pos, "prefix declaration %q must end with ':'", name.lexeme)
		}
		iri, err := p.expect(tokIRIRef, "prefix IRI")
		if err != nil {
			return err
		}
		p.prefixes[prefix] = p.resolve(iri.lexeme)
	}
}

func (p *updateParser) parseQuadData() ([]Quad, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var quads []Quad
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokRBrace:
			p.peeked = false
			return quads, nil
		case tok.kind == tokKeyword && tok.lexeme == "GRAPH":
			p.peeked = false
			graphTok, err := p.advance()
			if err != nil {
				return nil, err
			}
			graph, err := p.iriTerm(graphTok)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokLBrace, "'{'"); err != nil {
				return nil, err
			}
			if quads, err = p.parseTriples(graph, quads); err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBrace, "'}'"); err != nil {
				return nil, err
			}
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			if next.kind == tokDot {
				p.peeked = false
			}
		case tok.kind == tokEOF:
			return nil, p.scan.errorf(tok.pos, "unexpected end of update, expected '}'")
		default:
			if quads, err = p.parseTriples(nil, quads); err != nil {
				return nil, err
			}
		}
	}
}

// parseTriples reads triples until a closing brace or a GRAPH keyword.
func (p *updateParser) parseTriples(graph Term, quads []Quad) ([]Quad, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokRBrace || (tok.kind == tokKeyword && tok.lexeme == "GRAPH") {
			return quads, nil
		}
		p.peeked = false
		subject, err := p.subjectTerm(tok)
		if err != nil {
			return nil, err
		}
		if quads, err = p.parsePredicateObjectList(subject, graph, quads); err != nil {
			return nil, err
		}
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch next.kind {
		case tokDot:
			p.peeked = false
		case tokRBrace:
		default:
			return nil, p.scan.errorf(next.pos, "expected '.' or '}', found %q", next.lexeme)
		}
	}
}

func (p *updateParser) parsePredicateObjectList(subject Term, graph Term, quads []Quad) ([]Quad, error) {
	for {
		verbTok, err := p.advance()
		if err != nil {
			return nil, err
		}
		var predicate IRI
		if verbTok.kind == tokA {
			predicate = IRI{Value: rdfType}
		} else {
			term, err := p.iriTerm(verbTok)
			if err != nil {
				return nil, err
			}
			predicate = term.(IRI)
		}
		for {
			objTok, err := p.advance()
			if err != nil {
				return nil, err
			}
			object, err := p.objectTerm(objTok)
			if err != nil {
				return nil, err
			}
			quads = append(quads, Quad{S: subject, P: predicate, O: object, G: graph})
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			if next.kind != tokComma {
				break
			}
			p.peeked = false
		}
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.kind != tokSemicolon {
			return quads, nil
		}
		// Repeated and trailing semicolons are allowed.
		for next.kind == tokSemicolon {
			p.peeked = false
			if next, err = p.peek(); err != nil {
				return nil, err
			}
		}
		if next.kind == tokDot || next.kind == tokRBrace {
			return quads, nil
		}
	}
}

func (p *updateParser) subjectTerm(tok updateToken) (Term, error) {
	if tok.kind == tokBlankNode {
		return p.blankNode(tok)
	}
	return p.iriTerm(tok)
}

func (p *updateParser) blankNode(tok updateToken) (Term, error) {
	if p.kind == UpdateDeleteData {
		return nil, p.scan.errorf(tok.pos, "blank nodes are not allowed in DELETE DATA")
	}
	return BlankNode{ID: tok.lexeme}, nil
}

func (p *updateParser) iriTerm(tok updateToken) (Term, error) {
	switch tok.kind {
	case tokIRIRef:
		value := tok.lexeme
		if strings.IndexByte(value, '\\') >= 0 {
			unescaped, err := unescapeString(value)
			if err != nil {
				return nil, p.scan.errorf(tok.pos, "%v", err)
			}
			value = unescaped
		}
		return IRI{Value: p.resolve(value)}, nil
	case tokPName:
		prefix, local, _ := strings.Cut(tok.lexeme, ":")
		ns, ok := p.prefixes[prefix]
		if !ok {
			return nil, p.scan.errorf(tok.pos, "undefined prefix %q", prefix)
		}
		return IRI{Value: ns + unescapeLocal(local)}, nil
	default:
		return nil, p.scan.errorf(tok.pos, "expected IRI, found %q", tok.lexeme)
	}
}

func (p *updateParser) objectTerm(tok updateToken) (Term, error) {
	switch tok.kind {
	case tokBlankNode:
		return p.blankNode(tok)
	case tokIRIRef, tokPName:
		return p.iriTerm(tok)
	case tokInteger:
		return Literal{Lexical: tok.lexeme, Datatype: IRI{Value: xsdInteger}}, nil
	case tokDecimal:
		return Literal{Lexical: tok.lexeme, Datatype: IRI{Value: xsdDecimal}}, nil
	case tokDouble:
		return Literal{Lexical: tok.lexeme, Datatype: IRI{Value: xsdDouble}}, nil
	case tokBoolean:
		return Literal{Lexical: tok.lexeme, Datatype: IRI{Value: xsdBoolean}}, nil
	case tokString:
		lit := Literal{Lexical: tok.lexeme}
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch next.kind {
		case tokLangTag:
			p.peeked = false
			lit.Lang = next.lexeme
		case tokDatatype:
			p.peeked = false
			dtTok, err := p.advance()
			if err != nil {
				return nil, err
			}
			dt, err := p.iriTerm(dtTok)
			if err != nil {
				return nil, err
			}
			lit.Datatype = dt.(IRI)
		}
		return lit, nil
	default:
		return nil, p.scan.errorf(tok.pos, "expected object term, found %q", tok.lexeme)
	}
}

func (p *updateParser) resolve(iri string) string {
	if p.base == nil {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	return p.base.ResolveReference(ref).String()
}

// unescapeLocal drops the backslash of PN_LOCAL_ESC sequences.
func unescapeLocal(local string) string {
	if strings.IndexByte(local, '\\') < 0 {
		return local
	}
	var builder strings.Builder
	for i := 0; i < len(local); i++ {
		if local[i] == '\\' && i+1 < len(local) {
			i++
		}
		builder.WriteByte(local[i])
	}
	return builder.String()
}
