package parser

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Expression parsing for arithmetic expressions in amounts.
//
// Supports:
//   - Binary operators: +, -, *, /
//   - Unary sign
//   - Parentheses for grouping
//
// Evaluation is over exact rationals, so division never rounds: (1/3)*3
// is exactly 1. Results with a finite decimal expansion are stored as
// decimal literals; anything else keeps the num/den form, which the booking
// engine parses exactly.
//
// Operator precedence (low to high):
//  1. + -     (addition, subtraction)
//  2. * /     (multiplication, division)
//  3. ( )     (parentheses, highest)
//
// Grammar:
//
//	expression  → term (('+' | '-') term)*
//	term        → factor (('*' | '/') factor)*
//	factor      → NUMBER | ('+' | '-') factor | '(' expression ')'
//
// Examples:
//
//	2 + 3           → 5
//	2 + 3 * 4       → 14 (multiplication has higher precedence)
//	(2 + 3) * 4     → 20 (parentheses override precedence)
//	(300 / 2) CHF   → 150 CHF

// parseExpression parses and evaluates an arithmetic expression.
// This is the entry point for expression parsing.
func (p *Parser) parseExpression() (*big.Rat, error) {
	return p.parseAddSubtract()
}

// parseAddSubtract handles addition and subtraction (lowest precedence).
func (p *Parser) parseAddSubtract() (*big.Rat, error) {
	left, err := p.parseMultiplyDivide()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek().Type
		if op != PLUS && op != MINUS {
			break
		}

		p.advance() // consume operator

		right, err := p.parseMultiplyDivide()
		if err != nil {
			return nil, err
		}

		switch op {
		case PLUS:
			left = new(big.Rat).Add(left, right)
		case MINUS:
			left = new(big.Rat).Sub(left, right)
		}
	}

	return left, nil
}

// parseMultiplyDivide handles multiplication and division (higher precedence).
func (p *Parser) parseMultiplyDivide() (*big.Rat, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek().Type
		if op != ASTERISK && op != SLASH {
			break
		}

		opToken := p.advance() // consume operator

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		switch op {
		case ASTERISK:
			left = new(big.Rat).Mul(left, right)
		case SLASH:
			if right.Sign() == 0 {
				return nil, p.errorAtToken(opToken, "division by zero")
			}
			left = new(big.Rat).Quo(left, right)
		}
	}

	return left, nil
}

// parsePrimary handles numbers, unary sign, and parenthesized expressions
// (highest precedence).
func (p *Parser) parsePrimary() (*big.Rat, error) {
	tok := p.peek()

	// Parenthesized expression: (expr)
	if tok.Type == LPAREN {
		p.advance() // consume '('

		result, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		if !p.check(RPAREN) {
			return nil, p.error("expected ')' after expression")
		}
		p.advance() // consume ')'

		return result, nil
	}

	// Number (possibly with attached sign)
	if tok.Type == NUMBER {
		numTok := p.advance()
		value := numTok.String(p.source)

		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, p.errorAtToken(numTok, "invalid number in expression: %v", err)
		}

		return d.Rat(), nil
	}

	// Unary sign: -expr or +expr
	if tok.Type == MINUS || tok.Type == PLUS {
		p.advance()

		value, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		if tok.Type == MINUS {
			return new(big.Rat).Neg(value), nil
		}
		return value, nil
	}

	return nil, p.errorAtToken(tok, "expected number or '(' in expression, got %s", tok.Type)
}

// formatRat renders an evaluated expression: a decimal literal when the
// value has one, the exact num/den form otherwise.
func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	if d, exact := ratToDecimal(r); exact {
		return d.String()
	}
	return r.RatString()
}

// ratToDecimal converts a rational to a decimal when the denominator is a
// product of twos and fives.
func ratToDecimal(r *big.Rat) (decimal.Decimal, bool) {
	num := new(big.Int).Set(r.Num())
	den := new(big.Int).Set(r.Denom())

	two := big.NewInt(2)
	five := big.NewInt(5)
	mod := new(big.Int)

	exp := 0
	for {
		q, m := new(big.Int).QuoRem(den, two, mod)
		if m.Sign() != 0 {
			break
		}
		den = q
		num.Mul(num, five)
		exp++
	}
	for {
		q, m := new(big.Int).QuoRem(den, five, mod)
		if m.Sign() != 0 {
			break
		}
		den = q
		num.Mul(num, two)
		exp++
	}

	if den.Cmp(big.NewInt(1)) != 0 {
		return decimal.Decimal{}, false
	}

	return decimal.NewFromBigInt(num, int32(-exp)), true
}

// isExpressionStart checks if the current position looks like the start of an
// expression. This is used by parseAmount to detect expressions vs simple
// numbers.
func (p *Parser) isExpressionStart() bool {
	// NUMBER followed by an operator on the same line
	if p.check(NUMBER) {
		next := p.peekAhead(1)
		if next.Line != p.peek().Line {
			return false
		}
		return next.Type == PLUS || next.Type == MINUS ||
			next.Type == ASTERISK || next.Type == SLASH
	}

	// A parenthesis or bare sign definitely starts an expression
	return p.check(LPAREN) || p.check(MINUS) || p.check(PLUS)
}
