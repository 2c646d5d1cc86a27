package ledger

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/avandenberg/ledgerbook/ast"
)

// Amount is an exact rational number paired with a currency code. All
// arithmetic is performed on big.Rat, which keeps values in lowest terms, so
// structural equality is sound and (p + q) - q == p holds exactly. Binary
// operations require identical currencies and fail with a
// CrossCurrencyError otherwise; scalar multiply and divide take a bare
// rational.
//
// The zero value is not usable; construct amounts with Zero, NewAmount,
// ParseAmount, or MustAmount.
type Amount struct {
	rat      *big.Rat
	Currency string
}

// Zero returns the distinguished zero amount for a currency.
func Zero(currency string) Amount {
	return Amount{rat: new(big.Rat), Currency: currency}
}

// NewAmount creates an Amount from an exact decimal value.
func NewAmount(value decimal.Decimal, currency string) Amount {
	return Amount{rat: value.Rat(), Currency: currency}
}

// NewAmountFromRat creates an Amount from a rational. The rational is copied.
func NewAmountFromRat(r *big.Rat, currency string) Amount {
	return Amount{rat: new(big.Rat).Set(r), Currency: currency}
}

// ParseAmount converts an ast.Amount literal to an exact Amount. Most
// literals are plain decimals; amounts produced by expression evaluation may
// carry the num/den form when the value has no finite decimal expansion.
func ParseAmount(a *ast.Amount) (Amount, error) {
	if a == nil {
		return Amount{}, fmt.Errorf("amount is nil")
	}

	if strings.ContainsRune(a.Value, '/') {
		r, ok := new(big.Rat).SetString(a.Value)
		if !ok {
			return Amount{}, fmt.Errorf("invalid amount value %q", a.Value)
		}
		return Amount{rat: r, Currency: a.Currency}, nil
	}

	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount value %q: %w", a.Value, err)
	}

	return NewAmount(d, a.Currency), nil
}

// MustAmount parses a decimal string and currency, panicking on error.
// Use only in tests.
func MustAmount(value, currency string) Amount {
	a, err := ParseAmount(ast.NewAmount(value, currency))
	if err != nil {
		panic(err)
	}
	return a
}

// CrossCurrencyError is returned by any attempt to combine amounts with
// different currencies.
type CrossCurrencyError struct {
	Op    string
	Left  string
	Right string
}

func (e *CrossCurrencyError) Error() string {
	return fmt.Sprintf("cannot %s amounts of different currencies: %s vs %s", e.Op, e.Left, e.Right)
}

func (a Amount) check(op string, b Amount) error {
	if a.Currency != b.Currency {
		return &CrossCurrencyError{Op: op, Left: a.Currency, Right: b.Currency}
	}
	return nil
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.rat.Sign() == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.rat.Sign() > 0 }

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool { return a.rat.Sign() < 0 }

// Sign returns -1, 0, or +1 depending on the amount's sign.
func (a Amount) Sign() int { return a.rat.Sign() }

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return Amount{rat: new(big.Rat).Neg(a.rat), Currency: a.Currency}
}

// Abs returns the absolute value of the amount.
func (a Amount) Abs() Amount {
	return Amount{rat: new(big.Rat).Abs(a.rat), Currency: a.Currency}
}

// Add returns a + b. Fails when the currencies differ.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.check("add", b); err != nil {
		return Amount{}, err
	}
	return Amount{rat: new(big.Rat).Add(a.rat, b.rat), Currency: a.Currency}, nil
}

// Sub returns a - b. Fails when the currencies differ.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.check("subtract", b); err != nil {
		return Amount{}, err
	}
	return Amount{rat: new(big.Rat).Sub(a.rat, b.rat), Currency: a.Currency}, nil
}

// MulRat returns the amount scaled by a bare rational.
func (a Amount) MulRat(r *big.Rat) Amount {
	return Amount{rat: new(big.Rat).Mul(a.rat, r), Currency: a.Currency}
}

// DivRat returns the amount divided by a bare rational. Division by zero
// fails.
func (a Amount) DivRat(r *big.Rat) (Amount, error) {
	if r.Sign() == 0 {
		return Amount{}, fmt.Errorf("division by zero")
	}
	return Amount{rat: new(big.Rat).Quo(a.rat, r), Currency: a.Currency}, nil
}

// Cmp compares two amounts of the same currency: -1 if a < b, 0 if equal,
// +1 if a > b. Fails when the currencies differ.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.check("compare", b); err != nil {
		return 0, err
	}
	return a.rat.Cmp(b.rat), nil
}

// Equal reports structural equality: same currency and same normalized value.
func (a Amount) Equal(b Amount) bool {
	if a.Currency != b.Currency {
		return false
	}
	if a.rat == nil || b.rat == nil {
		return a.rat == b.rat
	}
	return a.rat.Cmp(b.rat) == 0
}

// Rat returns a copy of the underlying rational.
func (a Amount) Rat() *big.Rat {
	return new(big.Rat).Set(a.rat)
}

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
	bigFiv = big.NewInt(5)
)

// Decimal converts the amount to a decimal when the denominator is a product
// of twos and fives, i.e. when the value has a finite decimal expansion. The
// second result reports whether the conversion was exact.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	num := new(big.Int).Set(a.rat.Num())
	den := new(big.Int).Set(a.rat.Denom())

	// Strip factors of 2 and 5 from the denominator, tracking the scale.
	exp := 0
	mod := new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(den, bigTwo, mod)
		if m.Sign() != 0 {
			break
		}
		den = q
		num.Mul(num, bigFiv)
		exp++
	}
	for {
		q, m := new(big.Int).QuoRem(den, bigFiv, mod)
		if m.Sign() != 0 {
			break
		}
		den = q
		num.Mul(num, bigTwo)
		exp++
	}

	if den.Cmp(bigOne) != 0 {
		return decimal.Decimal{}, false
	}

	return decimal.NewFromBigInt(num, int32(-exp)), true
}

// ValueString renders the numeric value: an exact decimal when the value has
// a finite decimal expansion, the num/den form otherwise.
func (a Amount) ValueString() string {
	if d, ok := a.Decimal(); ok {
		return d.String()
	}
	return a.rat.RatString()
}

// String renders the amount as "value currency".
func (a Amount) String() string {
	return a.ValueString() + " " + a.Currency
}
