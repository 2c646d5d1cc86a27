package parser

import "github.com/avandenberg/ledgerbook/ast"

// Transaction parsing - the most complex directive type.
// Transactions have postings, which are indented on subsequent lines.

// parseTransaction parses a transaction:
// DATE (txn [FLAG] | FLAG) "description" [TAG]*
//
//	POSTING*
func (p *Parser) parseTransaction(pos ast.Position, date *ast.DateSpec) (*ast.Transaction, error) {
	txn := &ast.Transaction{
		Pos:  pos,
		When: date,
	}

	// Handle flag forms:
	//   DATE txn "description"      (no flag)
	//   DATE txn * "description"
	//   DATE * "description"
	//   DATE ! "description"
	if p.match(TXN) {
		if p.match(ASTERISK) {
			txn.Flag = "*"
		} else if p.match(EXCLAIM) {
			txn.Flag = "!"
		}
	} else if p.match(ASTERISK) {
		txn.Flag = "*"
	} else if p.match(EXCLAIM) {
		txn.Flag = "!"
	} else {
		return nil, p.error("expected transaction flag (* or !) or 'txn'")
	}

	description, err := p.parseString()
	if err != nil {
		return nil, err
	}
	txn.Description = description

	// Trailing tags on the header line
	for p.check(TAG) {
		tag, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		txn.Tags = append(txn.Tags, tag)
	}

	// Transaction-level metadata (indented key: value lines)
	txn.AddMetadata(p.parseMetadata(pos.Line)...)

	postings, err := p.parsePostings(pos.Line)
	if err != nil {
		return nil, err
	}
	txn.Postings = postings

	return txn, nil
}

// parsePostings parses all postings of a transaction. Postings are indented
// lines following the transaction header, starting with an optional flag and
// an account.
func (p *Parser) parsePostings(headerLine int) ([]*ast.Posting, error) {
	postings := make([]*ast.Posting, 0, 4)

	for p.isPostingStart(headerLine) {
		posting, err := p.parsePosting()
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// isPostingStart checks whether the next tokens begin an indented posting
// line: [FLAG] ACCOUNT with column > 1 on a line after the header.
func (p *Parser) isPostingStart(headerLine int) bool {
	tok := p.peek()
	if tok.Line <= headerLine || tok.Column <= 1 {
		return false
	}

	switch tok.Type {
	case ACCOUNT:
		return true
	case ASTERISK, EXCLAIM:
		return p.peekAhead(1).Type == ACCOUNT
	default:
		return false
	}
}

// parsePosting parses a single posting line:
//
//	[FLAG] ACCOUNT [AMOUNT CURRENCY [COSTSPEC]]
//	  [key: value]*
func (p *Parser) parsePosting() (*ast.Posting, error) {
	tok := p.peek()
	posting := &ast.Posting{Pos: p.position(tok)}

	if p.match(ASTERISK) {
		posting.Flag = "*"
	} else if p.match(EXCLAIM) {
		posting.Flag = "!"
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	// Optional amount, on the same line as the account
	if p.startsAmount(tok.Line) {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	// Optional cost spec
	if p.check(LBRACE) || p.check(LDBRACE) {
		cost, err := p.parseCostSpec()
		if err != nil {
			return nil, err
		}
		posting.Cost = cost
	}

	posting.AddMetadata(p.parseMetadata(tok.Line)...)

	return posting, nil
}

// startsAmount checks whether an amount (number or expression) starts on the
// given line.
func (p *Parser) startsAmount(line int) bool {
	tok := p.peek()
	if tok.Line != line {
		return false
	}
	switch tok.Type {
	case NUMBER, LPAREN, MINUS, PLUS:
		return true
	default:
		return false
	}
}
