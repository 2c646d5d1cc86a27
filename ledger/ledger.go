// Package ledger implements the booking engine: it consumes a time-ordered
// sequence of loaded directives and produces a booked ledger — fully
// specified transactions plus per-account multi-lot inventories evolving
// under strict double-entry invariants.
//
// Booking decides, for each posting, the amount when omitted (the elastic
// posting), the cost lot when reducing an existing position (FIFO or LIFO
// over the usable lots), the synthetic postings that route cost transfers
// through a trading account, and whether the transaction balances at zero in
// every currency. All arithmetic is exact rational; every change commits
// atomically per transaction.
//
// Example usage:
//
//	ldg, err := loader.New().Load(ctx, "main.ledger")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	booked, err := ledger.Book(ctx, ldg)
//	if err != nil {
//	    var derr *ledger.DirectiveError
//	    if errors.As(err, &derr) {
//	        fmt.Println(derr) // file:row: message
//	    }
//	}
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/telemetry"
)

// BookedLedger is the output of booking: the time-ordered booked
// transactions and the final account, currency, and inventory registries.
type BookedLedger struct {
	Transactions []*Transaction
	Accounts     AccountMap
	Currencies   CurrencyMap
	Inventories  InventoryMap
}

// State is a booking snapshot usable as the starting point of an incremental
// run: booking the remainder of a ledger from a prior BookedLedger's final
// state yields the same result as booking everything at once.
type State struct {
	Accounts    AccountMap
	Currencies  CurrencyMap
	Inventories InventoryMap
}

// BookOption configures a booking run.
type BookOption func(*booker)

// WithStartingState seeds the driver with a prior state instead of empty
// registries. The state maps are cloned; the caller's copies stay intact.
func WithStartingState(s *State) BookOption {
	return func(b *booker) {
		if s.Accounts != nil {
			b.accounts = s.Accounts.Clone()
		}
		if s.Currencies != nil {
			b.currencies = s.Currencies.Clone()
		}
		if s.Inventories != nil {
			b.inventories = s.Inventories.Clone()
		}
	}
}

// booker is the driver frame: it owns the running registries exclusively
// while walking the directive stream.
type booker struct {
	accounts     AccountMap
	currencies   CurrencyMap
	inventories  InventoryMap
	transactions []*Transaction
}

// Book walks the ledger's directives in order, dispatching by type: open,
// close, and currency directives update the registries, balance directives
// assert inventory totals, and transactions are booked through the
// transaction pipeline. The first error aborts booking and is returned
// enriched with the offending directive's source context.
func Book(ctx context.Context, ldg *ast.Ledger, opts ...BookOption) (*BookedLedger, error) {
	b := &booker{
		accounts:    make(AccountMap),
		currencies:  make(CurrencyMap),
		inventories: make(InventoryMap),
	}
	for _, opt := range opts {
		opt(b)
	}

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.booking (%d directives)", len(ldg.Directives)))
	defer timer.End()

	for _, directive := range ldg.Directives {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := b.bookDirective(directive); err != nil {
			return nil, enrich(directive, err)
		}
	}

	return &BookedLedger{
		Transactions: b.transactions,
		Accounts:     b.accounts,
		Currencies:   b.currencies,
		Inventories:  b.inventories,
	}, nil
}

func (b *booker) bookDirective(directive ast.Directive) error {
	switch d := directive.(type) {
	case *ast.Open:
		return b.bookOpen(d)
	case *ast.Close:
		return b.bookClose(d)
	case *ast.Currency:
		return b.bookCurrency(d)
	case *ast.Balance:
		return b.bookBalance(d)
	case *ast.Transaction:
		return b.bookTransaction(d)
	default:
		// Options are consumed by the loader; anything else is inert here.
		return nil
	}
}

// bookOpen registers an account. Opening an account that is currently open
// fails; reopening a closed account is permitted and replaces its state.
func (b *booker) bookOpen(open *ast.Open) error {
	if state, ok := b.accounts[open.Account]; ok && state.Status == StatusOpen {
		return &AlreadyOpenError{Account: open.Account}
	}

	currencies := make([]string, len(open.Currencies))
	copy(currencies, open.Currencies)

	b.accounts = b.accounts.Clone()
	b.accounts[open.Account] = &AccountState{
		Status:     StatusOpen,
		Currencies: currencies,
		Metadata:   open.Metadata,
	}
	return nil
}

// bookClose marks an account closed. Closing an already-closed account
// fails.
func (b *booker) bookClose(cl *ast.Close) error {
	if state, ok := b.accounts[cl.Account]; ok && state.Status == StatusClosed {
		return &AlreadyClosedError{Account: cl.Account}
	}

	b.accounts = b.accounts.Clone()
	b.accounts[cl.Account] = &AccountState{
		Status:   StatusClosed,
		Metadata: cl.Metadata,
	}
	return nil
}

// bookCurrency registers a currency declaration; duplicates fail.
func (b *booker) bookCurrency(c *ast.Currency) error {
	if _, ok := b.currencies[c.Code]; ok {
		return &DuplicateCurrencyError{Code: c.Code}
	}

	b.currencies = b.currencies.Clone()
	b.currencies[c.Code] = c
	return nil
}

// bookBalance checks an assertion: the inventory total of the account in the
// asserted currency must be within |tolerance| of the expected amount. The
// tolerance defaults to zero, i.e. an exact rational match.
func (b *booker) bookBalance(bal *ast.Balance) error {
	expected, err := ParseAmount(bal.Amount)
	if err != nil {
		return err
	}

	maxDelta := Zero(expected.Currency)
	if bal.Tolerance != "" {
		tol, err := decimal.NewFromString(bal.Tolerance)
		if err != nil {
			return fmt.Errorf("invalid tolerance %q: %w", bal.Tolerance, err)
		}
		maxDelta = NewAmount(tol, expected.Currency).Abs()
	}

	actual := b.inventories.Get(bal.Account).Total(expected.Currency)

	diff, err := expected.Sub(actual)
	if err != nil {
		return err
	}

	if exceeded, _ := diff.Abs().Cmp(maxDelta); exceeded > 0 {
		delta, _ := actual.Sub(expected)
		return &BalanceMismatchError{
			Account:  bal.Account,
			Expected: expected,
			Actual:   actual,
			Delta:    delta,
			MaxDelta: maxDelta,
		}
	}

	return nil
}

// bookTransaction delegates to the transaction pipeline and, on success,
// adopts the post-transaction snapshot as the running inventory map.
func (b *booker) bookTransaction(txn *ast.Transaction) error {
	booked, err := bookTransaction(txn, b.inventories, b.accounts)
	if err != nil {
		return err
	}

	b.transactions = append(b.transactions, booked)
	b.inventories = booked.InventoriesAfter
	return nil
}
