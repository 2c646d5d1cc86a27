package ledger

import (
	"fmt"
	"strings"

	"github.com/avandenberg/ledgerbook/ast"
)

// Error types raised by the booking core. Inner errors are lightweight: a
// message plus structured fields, without source context. The driver wraps
// them into a DirectiveError at the boundary so callers can render file:row.

// InvalidOptionError is returned for an unknown account-reference-checks
// mode, an unknown booking-method name, or a trading-account metadata value
// that is not account-typed.
type InvalidOptionError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %s=%q: %s", e.Name, e.Value, e.Reason)
}

// AccountNotOpenError is returned under strict reference checks when a
// posting references an account with no open directive.
type AccountNotOpenError struct {
	Account ast.Account
}

func (e *AccountNotOpenError) Error() string {
	return fmt.Sprintf("account %s is not open", e.Account)
}

// AccountClosedError is returned when a posting references a closed account.
type AccountClosedError struct {
	Account ast.Account
}

func (e *AccountClosedError) Error() string {
	return fmt.Sprintf("account %s is closed", e.Account)
}

// AlreadyOpenError is returned when an open directive targets an account
// that is currently open.
type AlreadyOpenError struct {
	Account ast.Account
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("account %s is already open", e.Account)
}

// AlreadyClosedError is returned when a close directive targets an account
// that is already closed.
type AlreadyClosedError struct {
	Account ast.Account
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("account %s is already closed", e.Account)
}

// DuplicateCurrencyError is returned when a currency directive redeclares a
// code.
type DuplicateCurrencyError struct {
	Code string
}

func (e *DuplicateCurrencyError) Error() string {
	return fmt.Sprintf("currency %s is already declared", e.Code)
}

// CurrencyNotAllowedError is returned when a booked posting's currency is
// outside the account's open-directive restriction.
type CurrencyNotAllowedError struct {
	Account  ast.Account
	Currency string
}

func (e *CurrencyNotAllowedError) Error() string {
	return fmt.Sprintf("currency %s is not allowed on account %s", e.Currency, e.Account)
}

// BalanceMismatchError is returned when a balance assertion differs from the
// actual inventory total by more than the tolerance.
type BalanceMismatchError struct {
	Account  ast.Account
	Expected Amount
	Actual   Amount
	Delta    Amount
	MaxDelta Amount
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("balance of %s is %s, expected %s (delta %s exceeds tolerance %s)",
		e.Account, e.Actual, e.Expected, e.Delta.ValueString(), e.MaxDelta.ValueString())
}

// TransactionUnbalancedError is returned when the postings of a transaction
// do not net to zero in every currency.
type TransactionUnbalancedError struct {
	Residual *Inventory
}

func (e *TransactionUnbalancedError) Error() string {
	return fmt.Sprintf("transaction does not balance, residual %s", e.Residual)
}

// AugmentationHasCurrencyFilterError is returned when an augmentation cost
// spec carries currency filters, which only make sense on reductions.
type AugmentationHasCurrencyFilterError struct {
	Currencies []string
}

func (e *AugmentationHasCurrencyFilterError) Error() string {
	return fmt.Sprintf("augmentation cost may not carry currency filters (%s)",
		strings.Join(e.Currencies, ", "))
}

// AugmentationMultipleDatesError is returned when an augmentation cost spec
// carries more than one date.
type AugmentationMultipleDatesError struct {
	Count int
}

func (e *AugmentationMultipleDatesError) Error() string {
	return fmt.Sprintf("augmentation cost may carry at most one date, got %d", e.Count)
}

// InferenceUnsupportedError is returned for a posting with a cost spec but no
// amount; the engine does not infer amounts from costs.
type InferenceUnsupportedError struct {
	Account ast.Account
}

func (e *InferenceUnsupportedError) Error() string {
	return fmt.Sprintf("posting on %s has a cost but no amount; amount inference is not supported", e.Account)
}

// DirectiveError enriches a core error with the directive being booked and
// its source context. Apart from the context's own error on cancellation, it
// is the only error type that escapes the driver.
type DirectiveError struct {
	Directive ast.Directive
	Pos       ast.Position
	Err       error
}

func (e *DirectiveError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = e.Directive.Date().String()
	}
	return fmt.Sprintf("%s: %v", location, e.Err)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

func (e *DirectiveError) GetPosition() ast.Position { return e.Pos }

func (e *DirectiveError) GetDirective() ast.Directive { return e.Directive }

// enrich wraps err with the directive's source context, unless it is already
// directive-aware.
func enrich(d ast.Directive, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*DirectiveError); ok {
		return err
	}
	return &DirectiveError{Directive: d, Pos: d.Position(), Err: err}
}
