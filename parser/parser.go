// Package parser implements the recursive-descent parser for ledger files.
//
// Parsing is two-phase: the zero-copy lexer tokenizes the whole buffer in a
// single pass, then the parser walks the token slice producing ast nodes.
// Amount expressions are evaluated at parse time over exact rationals; the
// ast carries a decimal literal when the result has one and the num/den form
// otherwise.
package parser

import (
	"context"
	"fmt"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/telemetry"
)

// Parser consumes the token stream of a single source file and produces an
// ast.File with directives in file order. Option and include nodes keep
// their positions so the loader can interleave them correctly.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner
}

// newParser lexes the source and prepares a parser over the token stream.
func newParser(source []byte, filename string) *Parser {
	lexer := NewLexer(source, filename)
	tokens := lexer.ScanAll()

	return &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
		interner: lexer.Interner(),
	}
}

// ParseBytes parses a source buffer without a filename.
func ParseBytes(ctx context.Context, data []byte) (*ast.File, error) {
	return ParseBytesWithFilename(ctx, "", data)
}

// ParseString parses a source string without a filename.
func ParseString(ctx context.Context, src string) (*ast.File, error) {
	return ParseBytesWithFilename(ctx, "", []byte(src))
}

// ParseBytesWithFilename parses a source buffer, attaching the filename to
// every position for error reporting.
func ParseBytesWithFilename(ctx context.Context, filename string, data []byte) (*ast.File, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("parse %s (%d bytes)", filename, len(data)))
	defer timer.End()

	p := newParser(data, filename)
	return p.parseFile()
}

// parseFile parses the whole token stream into an ast.File.
func (p *Parser) parseFile() (*ast.File, error) {
	file := &ast.File{}

	for !p.isAtEnd() {
		tok := p.peek()

		switch tok.Type {
		case DATE:
			directive, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			file.Directives = append(file.Directives, directive)

		case OPTION:
			option, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			file.Options = append(file.Options, option)

		case INCLUDE:
			include, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			file.Includes = append(file.Includes, include)

		default:
			return nil, p.errorAtToken(tok, "expected directive, got %s %q", tok.Type, tok.String(p.source))
		}
	}

	return file, nil
}

// parseDirective parses one dated directive, dispatching on the keyword
// after the date.
func (p *Parser) parseDirective() (ast.Directive, error) {
	tok := p.peek()
	pos := p.position(tok)

	date, err := p.parseDate()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case CURRENCY, COMMODITY:
		return p.parseCurrency(pos, date)
	case BALANCE:
		return p.parseBalance(pos, date)
	case TXN, ASTERISK, EXCLAIM:
		return p.parseTransaction(pos, date)
	default:
		next := p.peek()
		return nil, p.errorAtToken(next, "expected directive keyword after date, got %s %q", next.Type, next.String(p.source))
	}
}

// parseOption parses: option "name" "value"
func (p *Parser) parseOption() (*ast.Option, error) {
	tok := p.expect(OPTION, "expected 'option'")
	if tok.Type == ILLEGAL {
		return nil, p.error("expected 'option'")
	}

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	value, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Option{Pos: p.position(tok), Name: name, Value: value}, nil
}

// parseInclude parses: include "path"
func (p *Parser) parseInclude() (*ast.Include, error) {
	tok := p.expect(INCLUDE, "expected 'include'")
	if tok.Type == ILLEGAL {
		return nil, p.error("expected 'include'")
	}

	filename, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: p.position(tok), Filename: filename}, nil
}

// position builds an ast.Position from a token.
func (p *Parser) position(tok Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}
