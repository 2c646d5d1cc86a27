package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/avandenberg/ledgerbook/ast"
)

func TestBook_AccountLifecycle(t *testing.T) {
	account, _ := ast.NewAccount("Assets:Bank")

	t.Run("open then close succeeds", func(t *testing.T) {
		booked := mustBook(t,
			openAccount("2025-01-01", "Assets:Bank"),
			&ast.Close{When: ast.MustDateSpec("2025-02-01"), Account: account},
		)
		assert.Equal(t, StatusClosed, booked.Accounts[account].Status)
	})

	t.Run("reopening a closed account succeeds", func(t *testing.T) {
		booked := mustBook(t,
			openAccount("2025-01-01", "Assets:Bank"),
			&ast.Close{When: ast.MustDateSpec("2025-02-01"), Account: account},
			openAccount("2025-03-01", "Assets:Bank"),
		)
		assert.Equal(t, StatusOpen, booked.Accounts[account].Status)
	})

	t.Run("reopen succeeds under strict checks", func(t *testing.T) {
		reopen := openAccount("2025-03-01", "Assets:Bank")
		reopen.SetOptions(ast.OptionMap{"account-reference-checks": "strict"})

		txn := ast.NewTransaction(ast.MustDateSpec("2025-04-01"), "Use it",
			ast.WithPostings(
				ast.NewPosting(account, ast.WithAmount("1", "USD")),
				ast.NewPosting(account, ast.WithAmount("-1", "USD")),
			),
		)
		txn.SetOptions(ast.OptionMap{"account-reference-checks": "strict"})

		mustBook(t,
			openAccount("2025-01-01", "Assets:Bank"),
			&ast.Close{When: ast.MustDateSpec("2025-02-01"), Account: account},
			reopen,
			txn,
		)
	})

	t.Run("opening an open account fails", func(t *testing.T) {
		_, err := book(t,
			openAccount("2025-01-01", "Assets:Bank"),
			openAccount("2025-02-01", "Assets:Bank"),
		)

		var alreadyOpen *AlreadyOpenError
		assert.True(t, errors.As(err, &alreadyOpen))
	})

	t.Run("closing a closed account fails", func(t *testing.T) {
		_, err := book(t,
			openAccount("2025-01-01", "Assets:Bank"),
			&ast.Close{When: ast.MustDateSpec("2025-02-01"), Account: account},
			&ast.Close{When: ast.MustDateSpec("2025-03-01"), Account: account},
		)

		var alreadyClosed *AlreadyClosedError
		assert.True(t, errors.As(err, &alreadyClosed))
	})
}

func TestBook_CurrencyRegistry(t *testing.T) {
	t.Run("registers declarations", func(t *testing.T) {
		booked := mustBook(t,
			&ast.Currency{When: ast.MustDateSpec("2025-01-01"), Code: "USD"},
			&ast.Currency{When: ast.MustDateSpec("2025-01-01"), Code: "CHF"},
		)
		assert.Equal(t, 2, len(booked.Currencies))
		assert.NotZero(t, booked.Currencies["USD"])
	})

	t.Run("duplicate declaration fails", func(t *testing.T) {
		_, err := book(t,
			&ast.Currency{When: ast.MustDateSpec("2025-01-01"), Code: "USD"},
			&ast.Currency{When: ast.MustDateSpec("2025-02-01"), Code: "USD"},
		)

		var duplicate *DuplicateCurrencyError
		assert.True(t, errors.As(err, &duplicate))
		assert.Equal(t, "USD", duplicate.Code)
	})
}

func TestBook_BalanceAssertion(t *testing.T) {
	account, _ := ast.NewAccount("Assets:Bank")

	deposit := func() ast.Directive {
		return ast.NewTransaction(ast.MustDateSpec("2025-05-01"), "Deposit",
			ast.WithPostings(
				ast.NewPosting(account, ast.WithAmount("10.00", "CHF")),
				ast.NewPosting("Equity:Opening"),
			),
		)
	}

	setup := func() []ast.Directive {
		return []ast.Directive{
			openAccount("2025-01-01", "Assets:Bank"),
			openAccount("2025-01-01", "Equity:Opening"),
			deposit(),
		}
	}

	t.Run("within tolerance succeeds", func(t *testing.T) {
		balance := &ast.Balance{
			When:      ast.MustDateSpec("2025-06-01"),
			Account:   account,
			Amount:    ast.NewAmount("10.01", "CHF"),
			Tolerance: "0.02",
		}
		mustBook(t, append(setup(), balance)...)
	})

	t.Run("outside tolerance fails with delta", func(t *testing.T) {
		balance := &ast.Balance{
			When:      ast.MustDateSpec("2025-06-01"),
			Account:   account,
			Amount:    ast.NewAmount("10.01", "CHF"),
			Tolerance: "0.005",
		}
		_, err := book(t, append(setup(), balance)...)

		var mismatch *BalanceMismatchError
		assert.True(t, errors.As(err, &mismatch))
		assert.True(t, mismatch.Expected.Equal(MustAmount("10.01", "CHF")))
		assert.True(t, mismatch.Actual.Equal(MustAmount("10.00", "CHF")))
		assert.True(t, mismatch.Delta.Equal(MustAmount("-0.01", "CHF")))
		assert.True(t, mismatch.MaxDelta.Equal(MustAmount("0.005", "CHF")))
	})

	t.Run("tolerance defaults to zero", func(t *testing.T) {
		exact := &ast.Balance{
			When:    ast.MustDateSpec("2025-06-01"),
			Account: account,
			Amount:  ast.NewAmount("10.00", "CHF"),
		}
		mustBook(t, append(setup(), exact)...)

		off := &ast.Balance{
			When:    ast.MustDateSpec("2025-06-01"),
			Account: account,
			Amount:  ast.NewAmount("10.001", "CHF"),
		}
		_, err := book(t, append(setup(), off)...)

		var mismatch *BalanceMismatchError
		assert.True(t, errors.As(err, &mismatch))
	})

	t.Run("negative tolerance behaves like its absolute value", func(t *testing.T) {
		balance := &ast.Balance{
			When:      ast.MustDateSpec("2025-06-01"),
			Account:   account,
			Amount:    ast.NewAmount("10.01", "CHF"),
			Tolerance: "-0.02",
		}
		mustBook(t, append(setup(), balance)...)
	})

	t.Run("sums across lots", func(t *testing.T) {
		buy := ast.NewTransaction(ast.MustDateSpec("2025-05-02"), "Buy",
			ast.WithPostings(
				ast.NewPosting(account,
					ast.WithAmount("2", "VT"),
					ast.WithCost(ast.CostPerUnit, ast.NewAmount("1", "CHF"))),
				ast.NewPosting(account),
			),
		)
		balance := &ast.Balance{
			When:    ast.MustDateSpec("2025-06-01"),
			Account: account,
			Amount:  ast.NewAmount("2", "VT"),
		}
		mustBook(t, append(setup(), buy, balance)...)
	})
}

func TestBook_ErrorEnrichment(t *testing.T) {
	open := openAccount("2025-01-01", "Assets:Bank")
	open.Pos = ast.Position{Filename: "main.ledger", Line: 3, Column: 1}

	duplicate := openAccount("2025-02-01", "Assets:Bank")
	duplicate.Pos = ast.Position{Filename: "main.ledger", Line: 9, Column: 1}

	_, err := book(t, open, duplicate)

	var directiveErr *DirectiveError
	assert.True(t, errors.As(err, &directiveErr))
	assert.Equal(t, "main.ledger", directiveErr.GetPosition().Filename)
	assert.Equal(t, 9, directiveErr.GetPosition().Line)
	assert.Contains(t, err.Error(), "main.ledger:9")

	var alreadyOpen *AlreadyOpenError
	assert.True(t, errors.As(err, &alreadyOpen))
}

func TestBook_StartingState(t *testing.T) {
	// Booking in two runs through a starting state equals one run.
	first := mustBook(t,
		openAccount("2025-01-01", "Assets:Broker"),
		openAccount("2025-01-01", "Income:Trading"),
		ast.NewTransaction(ast.MustDateSpec("2025-04-01"), "Buy",
			ast.WithPostings(
				ast.NewPosting("Assets:Broker",
					ast.WithAmount("2", "VT"),
					ast.WithCost(ast.CostPerUnit, ast.NewAmount("150", "CHF"))),
				ast.NewPosting("Assets:Broker"),
			),
		),
	)

	sell := ast.NewTransaction(ast.MustDateSpec("2025-04-02"), "Sell",
		ast.WithPostings(
			ast.NewPosting("Assets:Broker",
				ast.WithAmount("-2", "VT"),
				ast.WithCostSpec(&ast.CostSpec{})),
			ast.NewPosting("Assets:Broker", ast.WithAmount("350", "CHF")),
			ast.NewPosting("Income:Trading"),
		),
	)

	second, err := Book(context.Background(), &ast.Ledger{Directives: ast.Directives{sell}},
		WithStartingState(&State{
			Accounts:    first.Accounts,
			Currencies:  first.Currencies,
			Inventories: first.Inventories,
		}),
	)
	assert.NoError(t, err)

	assert.True(t, second.Inventories.Get("Assets:Broker").Total("CHF").Equal(MustAmount("50", "CHF")))
	assert.Equal(t, 0, len(second.Inventories.Get("Assets:Broker").PositionsFor("VT")))

	// The first run's final state is untouched by the second run.
	assert.Equal(t, 2, len(first.Inventories.Get("Assets:Broker").PositionsFor("VT"))+
		len(first.Inventories.Get("Assets:Broker").PositionsFor("CHF")))
}
