package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeLineTooLong indicates a line exceeded the configured limit.
	ErrCodeLineTooLong ErrorCode = "LINE_TOO_LONG"
	// ErrCodeStatementLimitExceeded indicates the maximum number of statements was exceeded.
	ErrCodeStatementLimitExceeded ErrorCode = "STATEMENT_LIMIT_EXCEEDED"
	// ErrCodeParseError indicates a general parse error.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInvalidTerm indicates a term that cannot be parsed or rendered.
	ErrCodeInvalidTerm ErrorCode = "INVALID_TERM"
)

var (
	// ErrUnsupportedFormat indicates an unsupported format.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
	// ErrLineTooLong indicates a line exceeded the configured limit.
	ErrLineTooLong = errors.New("rdf: line exceeds configured limit")
	// ErrStatementLimitExceeded indicates the maximum number of statements was exceeded.
	ErrStatementLimitExceeded = errors.New("rdf: maximum number of statements exceeded")
	// ErrInvalidTerm indicates a term that cannot be parsed or rendered.
	ErrInvalidTerm = errors.New("rdf: invalid term")
)

// Code returns the error code for an error, or ErrCodeParseError if unknown.
// Returns empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrLineTooLong):
		return ErrCodeLineTooLong
	case errors.Is(err, ErrStatementLimitExceeded):
		return ErrCodeStatementLimitExceeded
	case errors.Is(err, ErrInvalidTerm):
		return ErrCodeInvalidTerm
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}
	return ErrCodeParseError
}

// ParseError provides structured context for parse failures.
type ParseError struct {
	Format    string // Format name (e.g., "nquads", "sparql-update")
	Statement string // Offending statement or input excerpt
	Line      int    // 1-based line number (0 if unknown)
	Column    int    // 1-based column number (0 if unknown)
	Err       error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	if excerpt := e.excerpt(); excerpt != "" {
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// excerpt returns a short window of the statement around the error column.
func (e *ParseError) excerpt() string {
	const maxExcerptLen = 80
	const contextLen = 40

	if e.Statement == "" {
		return ""
	}
	if e.Column <= 0 {
		if len(e.Statement) > maxExcerptLen {
			return e.Statement[:maxExcerptLen] + "..."
		}
		return e.Statement
	}

	pos := min(e.Column-1, len(e.Statement))
	start := max(pos-contextLen, 0)
	end := min(pos+contextLen, len(e.Statement))
	excerpt := e.Statement[start:end]
	caret := pos - start
	if start > 0 {
		excerpt = "..." + excerpt
		caret += 3
	}
	if end < len(e.Statement) {
		excerpt += "..."
	}
	return excerpt + "\n  " + strings.Repeat(" ", caret) + "^"
}

// wrapParseError adds format/statement/position context to a parse error.
// Existing position information on a wrapped ParseError is kept when the
// caller has none.
func wrapParseError(format, statement string, line, column int, err error) error {
	if err == nil {
		return nil
	}
	var inner *ParseError
	if errors.As(err, &inner) {
		if line == 0 {
			line = inner.Line
		}
		if column == 0 {
			column = inner.Column
		}
		err = inner.Err
	}
	return &ParseError{
		Format:    format,
		Statement: statement,
		Line:      line,
		Column:    column,
		Err:       err,
	}
}
