package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse matches every *ParseError via errors.Is.
	ErrParse = errors.New("parse error")

	// ErrInvalidUTF8 indicates source text that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("source is not valid UTF-8")

	// ErrFileTooLarge indicates a file above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ParseError reports malformed Python source.
//
// The message always begins with "Parse error" so callers matching on the
// text keep working:
//
//	Parse error: line 1, column 10: missing ")"
//	Parse error in pkg/mod.py: line 3, column 1: invalid syntax near "def 123invalid"
type ParseError struct {
	// Path is the file the source came from; empty for in-memory text.
	Path string

	// Line is 1-based; 0 when the error has no location.
	Line int

	// Column is 1-based; 0 when the error has no location.
	Column int

	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("Parse error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d, column %d", e.Line, e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
