package parser

import "github.com/avandenberg/ledgerbook/ast"

// Directive parsers for all non-transaction directives.
// These are relatively simple parsers with deterministic structure.

// parseOpen parses: DATE open ACCOUNT [CURRENCY[,CURRENCY]*]
func (p *Parser) parseOpen(pos ast.Position, date *ast.DateSpec) (*ast.Open, error) {
	p.consume(OPEN, "expected 'open'")

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{
		Pos:     pos,
		When:    date,
		Account: account,
	}

	// Optional currency restriction, on the directive line (a metadata key
	// on the next line is also an IDENT)
	if p.check(IDENT) && p.peek().Line == pos.Line {
		open.Currencies = make([]string, 0, 2)
		currency, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		open.Currencies = append(open.Currencies, currency)

		// Additional currencies separated by commas
		for p.match(COMMA) {
			currency, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			open.Currencies = append(open.Currencies, currency)
		}
	}

	open.AddMetadata(p.parseMetadata(pos.Line)...)

	return open, nil
}

// parseClose parses: DATE close ACCOUNT
func (p *Parser) parseClose(pos ast.Position, date *ast.DateSpec) (*ast.Close, error) {
	p.consume(CLOSE, "expected 'close'")

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	cl := &ast.Close{
		Pos:     pos,
		When:    date,
		Account: account,
	}
	cl.AddMetadata(p.parseMetadata(pos.Line)...)

	return cl, nil
}

// parseCurrency parses: DATE currency CURRENCY
// The keyword "commodity" is accepted as a synonym.
func (p *Parser) parseCurrency(pos ast.Position, date *ast.DateSpec) (*ast.Currency, error) {
	if !p.match(CURRENCY) {
		p.consume(COMMODITY, "expected 'currency' or 'commodity'")
	}

	code, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	currency := &ast.Currency{
		Pos:  pos,
		When: date,
		Code: code,
	}
	currency.AddMetadata(p.parseMetadata(pos.Line)...)

	return currency, nil
}

// parseBalance parses: DATE balance ACCOUNT AMOUNT [~ NUMBER]
func (p *Parser) parseBalance(pos ast.Position, date *ast.DateSpec) (*ast.Balance, error) {
	p.consume(BALANCE, "expected 'balance'")

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	bal := &ast.Balance{
		Pos:     pos,
		When:    date,
		Account: account,
		Amount:  amount,
	}

	// Optional tolerance: ~ NUMBER
	if p.match(TILDE) {
		tolerance, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		bal.Tolerance = tolerance
	}

	bal.AddMetadata(p.parseMetadata(pos.Line)...)

	return bal, nil
}
