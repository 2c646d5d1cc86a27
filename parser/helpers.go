package parser

import (
	"fmt"
	"strings"

	"github.com/avandenberg/ledgerbook/ast"
)

// Helper parsing methods used across directive parsers.
// These implement the common patterns in the ledger syntax.

// Token stream navigation.

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

// check reports whether the next token has the given type.
func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

// match consumes the next token if it has the given type.
func (p *Parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

// expect consumes a token of the given type, or returns an ILLEGAL token.
func (p *Parser) expect(t TokenType, message string) Token {
	if p.check(t) {
		return p.advance()
	}
	return Token{Type: ILLEGAL, Line: p.peek().Line, Column: p.peek().Column, Start: p.peek().Start}
}

// consume consumes a token of the given type, ignoring the result. Used for
// mandatory punctuation.
func (p *Parser) consume(t TokenType, message string) {
	if p.check(t) {
		p.advance()
	}
}

// error creates a parse error at the current token.
func (p *Parser) error(format string, args ...interface{}) error {
	return p.errorAtToken(p.peek(), format, args...)
}

// errorAtToken creates a parse error at a specific token.
func (p *Parser) errorAtToken(tok Token, format string, args ...interface{}) error {
	return &ParseError{
		Pos: ast.Position{
			Filename: p.filename,
			Offset:   tok.Start,
			Line:     tok.Line,
			Column:   tok.Column,
		},
		Message: fmt.Sprintf(format, args...),
	}
}

// parseDate parses a DATE token into an ast.DateSpec resolved against UTC.
// The loader re-resolves specs without an explicit zone once the effective
// default-timezone option is known.
func (p *Parser) parseDate() (*ast.DateSpec, error) {
	tok := p.expect(DATE, "expected date")
	if tok.Type == ILLEGAL {
		return nil, p.errorAtToken(p.peek(), "expected date")
	}

	spec, err := splitDateSpec(tok.String(p.source))
	if err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}

	if err := spec.Resolve(nil); err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}

	return spec, nil
}

// splitDateSpec splits a raw datetime literal into its date, time, and zone
// parts. The lexer guarantees the overall shape; this only slices it.
func splitDateSpec(raw string) (*ast.DateSpec, error) {
	if len(raw) < 10 {
		return nil, fmt.Errorf("invalid date: %s", raw)
	}

	spec := &ast.DateSpec{Date: raw[:10]}
	rest := raw[10:]

	if rest == "" {
		return spec, nil
	}
	if rest[0] != 'T' {
		return nil, fmt.Errorf("invalid date: %s", raw)
	}
	rest = rest[1:]

	// HH:MM or HH:MM:SS
	timeLen := 5
	if len(rest) >= 8 && rest[5] == ':' {
		timeLen = 8
	}
	if len(rest) < timeLen {
		return nil, fmt.Errorf("invalid time in date: %s", raw)
	}
	spec.Time = rest[:timeLen]
	spec.Zone = rest[timeLen:]

	return spec, nil
}

// parseAccount parses an ACCOUNT token and converts it to ast.Account.
// The account name is interned to save memory.
func (p *Parser) parseAccount() (ast.Account, error) {
	tok := p.expect(ACCOUNT, "expected account")
	if tok.Type == ILLEGAL {
		actualTok := p.peek()
		return "", p.errorAtToken(actualTok, "expected account but got %s %q", actualTok.Type, actualTok.String(p.source))
	}

	account := ast.Account(p.interner.InternBytes(tok.Bytes(p.source)))
	if err := account.Validate(); err != nil {
		return "", p.errorAtToken(tok, "invalid account: %v", err)
	}

	return account, nil
}

// parseIdent parses an IDENT token, interned.
func (p *Parser) parseIdent() (string, error) {
	tok := p.expect(IDENT, "expected identifier")
	if tok.Type == ILLEGAL {
		actualTok := p.peek()
		return "", p.errorAtToken(actualTok, "expected identifier but got %s %q", actualTok.Type, actualTok.String(p.source))
	}

	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

// parseString parses a STRING token, unquoting and unescaping it.
func (p *Parser) parseString() (string, error) {
	tok := p.expect(STRING, "expected string")
	if tok.Type == ILLEGAL {
		actualTok := p.peek()
		return "", p.errorAtToken(actualTok, "expected string but got %s %q", actualTok.Type, actualTok.String(p.source))
	}

	raw := tok.String(p.source)
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", p.errorAtToken(tok, "unterminated string")
	}
	raw = raw[1 : len(raw)-1]

	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}

	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(raw[i])
			}
			continue
		}
		sb.WriteByte(raw[i])
	}
	return sb.String(), nil
}

// parseTag parses a TAG token, stripping the leading #.
func (p *Parser) parseTag() (ast.Tag, error) {
	tok := p.expect(TAG, "expected tag")
	if tok.Type == ILLEGAL {
		return "", p.error("expected tag")
	}

	// Lexer guarantees format #[A-Za-z0-9_-]+, so skip the first character
	return ast.Tag(tok.String(p.source)[1:]), nil
}

// parseAmount parses an amount: NUMBER CURRENCY or EXPRESSION CURRENCY
//
// Supports arithmetic expressions in amounts:
//
//	100.50 USD           → simple amount (fast path)
//	-50.00 USD           → negative number
//	(40.00/4) USD        → expression evaluated at parse time
//	40.00/4 + 5 USD      → expression with operators
//
// Expressions are evaluated at parse time and stored as decimal strings, or
// as num/den when the result has no finite decimal expansion.
func (p *Parser) parseAmount() (*ast.Amount, error) {
	if p.isExpressionStart() {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		currency, err := p.parseIdent()
		if err != nil {
			return nil, err
		}

		return &ast.Amount{Value: formatRat(value), Currency: currency}, nil
	}

	tok := p.expect(NUMBER, "expected number")
	if tok.Type == ILLEGAL {
		actualTok := p.peek()
		return nil, p.errorAtToken(actualTok, "expected amount but got %s %q", actualTok.Type, actualTok.String(p.source))
	}

	currency, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	return &ast.Amount{
		Value:    p.interner.InternBytes(tok.Bytes(p.source)),
		Currency: currency,
	}, nil
}

// parseNumber parses a bare NUMBER token into its literal string.
func (p *Parser) parseNumber() (string, error) {
	tok := p.expect(NUMBER, "expected number")
	if tok.Type == ILLEGAL {
		actualTok := p.peek()
		return "", p.errorAtToken(actualTok, "expected number but got %s %q", actualTok.Type, actualTok.String(p.source))
	}
	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

// parseMetadata parses indented "key: value" lines following a directive
// header at headerLine. Metadata keys are lowercase identifiers; the value is
// typed by its token shape.
func (p *Parser) parseMetadata(headerLine int) []*ast.Metadata {
	var meta []*ast.Metadata

	for p.isMetadataLine(headerLine) {
		keyTok := p.advance() // IDENT
		p.advance()           // COLON

		value := p.parseMetadataValue()
		meta = append(meta, &ast.Metadata{
			Key:   p.interner.InternBytes(keyTok.Bytes(p.source)),
			Value: value,
		})
	}

	return meta
}

// isMetadataLine checks whether the next tokens form an indented metadata
// line: IDENT ':' on a later line than the header, indented.
func (p *Parser) isMetadataLine(headerLine int) bool {
	tok := p.peek()
	if tok.Type != IDENT || tok.Line <= headerLine || tok.Column <= 1 {
		return false
	}
	return p.peekAhead(1).Type == COLON
}

// parseMetadataValue parses a typed metadata value from the token shape.
func (p *Parser) parseMetadataValue() *ast.MetadataValue {
	tok := p.peek()

	switch tok.Type {
	case STRING:
		s, err := p.parseString()
		if err != nil {
			return &ast.MetadataValue{}
		}
		return &ast.MetadataValue{StringValue: &s}

	case DATE:
		d, err := p.parseDate()
		if err != nil {
			return &ast.MetadataValue{}
		}
		return &ast.MetadataValue{Date: d}

	case ACCOUNT:
		a, err := p.parseAccount()
		if err != nil {
			return &ast.MetadataValue{}
		}
		return &ast.MetadataValue{Account: &a}

	case TAG:
		t, err := p.parseTag()
		if err != nil {
			return &ast.MetadataValue{}
		}
		return &ast.MetadataValue{Tag: &t}

	case NUMBER:
		// NUMBER IDENT on the same line is an amount, bare NUMBER a number.
		numTok := p.advance()
		num := p.interner.InternBytes(numTok.Bytes(p.source))
		if p.check(IDENT) && p.peek().Line == numTok.Line {
			currency, err := p.parseIdent()
			if err != nil {
				return &ast.MetadataValue{Number: &num}
			}
			return &ast.MetadataValue{Amount: &ast.Amount{Value: num, Currency: currency}}
		}
		return &ast.MetadataValue{Number: &num}

	case IDENT:
		word := p.advance().String(p.source)
		switch word {
		case "TRUE":
			v := true
			return &ast.MetadataValue{Boolean: &v}
		case "FALSE":
			v := false
			return &ast.MetadataValue{Boolean: &v}
		}
		if word == strings.ToUpper(word) {
			currency := p.interner.Intern(word)
			return &ast.MetadataValue{Currency: &currency}
		}
		s := p.interner.Intern(word)
		return &ast.MetadataValue{StringValue: &s}

	default:
		return &ast.MetadataValue{}
	}
}

// parseCostSpec parses a cost specification: single braces for per-unit
// costs, double braces for total costs. Components are comma-separated:
// amounts, bare currencies (reduction filter), date-specs, and tags.
func (p *Parser) parseCostSpec() (*ast.CostSpec, error) {
	kind := ast.CostPerUnit
	closing := RBRACE
	if p.match(LDBRACE) {
		kind = ast.CostTotal
		closing = RDBRACE
	} else if !p.match(LBRACE) {
		return nil, p.error("expected cost specification")
	}

	spec := &ast.CostSpec{Kind: kind}

	for !p.check(closing) && !p.isAtEnd() {
		switch p.peek().Type {
		case NUMBER, LPAREN, MINUS, PLUS:
			amount, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			spec.Amounts = append(spec.Amounts, amount)

		case DATE:
			date, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			spec.Dates = append(spec.Dates, date)

		case TAG:
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			spec.Tags = append(spec.Tags, string(tag))

		case IDENT:
			currency, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			spec.Currencies = append(spec.Currencies, currency)

		default:
			tok := p.peek()
			return nil, p.errorAtToken(tok, "unexpected %s %q in cost specification", tok.Type, tok.String(p.source))
		}

		if !p.match(COMMA) {
			break
		}
	}

	tok := p.expect(closing, "expected closing brace")
	if tok.Type == ILLEGAL {
		return nil, p.error("expected %s to close cost specification", closing)
	}

	return spec, nil
}
