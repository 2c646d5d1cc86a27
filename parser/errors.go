package parser

import (
	"fmt"

	"github.com/avandenberg/ledgerbook/ast"
)

// ParseError represents a syntax error during parsing.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = fmt.Sprintf("line %d", e.Pos.Line)
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// NewParseError wraps an error from parsing the named file. Errors that are
// already ParseErrors pass through with their positions; only an empty
// filename is filled in.
func NewParseError(filename string, err error) *ParseError {
	if pErr, ok := err.(*ParseError); ok {
		if pErr.Pos.Filename == "" {
			pErr.Pos.Filename = filename
		}
		return pErr
	}

	return &ParseError{
		Pos: ast.Position{
			Filename: filename,
			Line:     1,
			Column:   1,
		},
		Message:    err.Error(),
		Underlying: err,
	}
}
