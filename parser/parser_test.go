package parser

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/avandenberg/ledgerbook/ast"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, err := ParseString(context.Background(), src)
	assert.NoError(t, err)
	return file
}

func TestParse_Open(t *testing.T) {
	t.Run("without currencies", func(t *testing.T) {
		file := parse(t, "2025-05-01 open Assets:Bank:Checking")

		assert.Equal(t, 1, len(file.Directives))
		open := file.Directives[0].(*ast.Open)
		assert.Equal(t, "Assets:Bank:Checking", string(open.Account))
		assert.Equal(t, "2025-05-01", open.When.Date)
		assert.Equal(t, 0, len(open.Currencies))
	})

	t.Run("with currency restriction", func(t *testing.T) {
		file := parse(t, "2025-05-01 open Assets:Broker USD,CHF")

		open := file.Directives[0].(*ast.Open)
		assert.Equal(t, []string{"USD", "CHF"}, open.Currencies)
	})

	t.Run("with metadata", func(t *testing.T) {
		file := parse(t, `2025-05-01 open Assets:Broker
  booking-method: "lifo"
  trading-account: Trading:Brokers`)

		open := file.Directives[0].(*ast.Open)
		assert.Equal(t, 2, len(open.Meta()))
		assert.Equal(t, "booking-method", open.Meta()[0].Key)
		assert.Equal(t, "lifo", open.Meta()[0].Value.String())
		assert.Equal(t, "account", open.Meta()[1].Value.Type())
	})
}

func TestParse_CloseAndCurrency(t *testing.T) {
	file := parse(t, `2025-09-23 close Assets:Bank:Checking
2025-01-01 currency USD
2025-01-01 commodity CHF`)

	assert.Equal(t, 3, len(file.Directives))

	cl := file.Directives[0].(*ast.Close)
	assert.Equal(t, "Assets:Bank:Checking", string(cl.Account))

	usd := file.Directives[1].(*ast.Currency)
	assert.Equal(t, "USD", usd.Code)

	// commodity is a synonym
	chf := file.Directives[2].(*ast.Currency)
	assert.Equal(t, "CHF", chf.Code)
}

func TestParse_Balance(t *testing.T) {
	t.Run("without tolerance", func(t *testing.T) {
		file := parse(t, "2025-06-01 balance Assets:Bank 10.00 CHF")

		bal := file.Directives[0].(*ast.Balance)
		assert.Equal(t, "Assets:Bank", string(bal.Account))
		assert.Equal(t, "10.00", bal.Amount.Value)
		assert.Equal(t, "CHF", bal.Amount.Currency)
		assert.Equal(t, "", bal.Tolerance)
	})

	t.Run("with tolerance", func(t *testing.T) {
		file := parse(t, "2025-06-01 balance Assets:Bank 10.01 CHF ~ 0.02")

		bal := file.Directives[0].(*ast.Balance)
		assert.Equal(t, "0.02", bal.Tolerance)
	})
}

func TestParse_Transaction(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Completed"
2025-04-02 ! "Pending"
2025-04-03 txn "Keyword"`)

		assert.Equal(t, "*", file.Directives[0].(*ast.Transaction).Flag)
		assert.Equal(t, "!", file.Directives[1].(*ast.Transaction).Flag)
		assert.Equal(t, "", file.Directives[2].(*ast.Transaction).Flag)
	})

	t.Run("postings", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Groceries" #food
  Expenses:Food    45.60 USD
  Assets:Checking`)

		txn := file.Directives[0].(*ast.Transaction)
		assert.Equal(t, "Groceries", txn.Description)
		assert.Equal(t, []ast.Tag{"food"}, txn.Tags)
		assert.Equal(t, 2, len(txn.Postings))

		assert.Equal(t, "Expenses:Food", string(txn.Postings[0].Account))
		assert.Equal(t, "45.60", txn.Postings[0].Amount.Value)
		assert.True(t, txn.Postings[1].IsElastic())
	})

	t.Run("posting flag", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Flagged leg"
  ! Assets:Unsure  1.00 USD
  Assets:Checking`)

		txn := file.Directives[0].(*ast.Transaction)
		assert.Equal(t, "!", txn.Postings[0].Flag)
	})

	t.Run("posting metadata", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Payment"
  note: "transaction level"
  Assets:Checking  -100.00 USD
    confirmation: "CONF123"
  Expenses:Services`)

		txn := file.Directives[0].(*ast.Transaction)
		assert.Equal(t, 1, len(txn.Meta()))
		assert.Equal(t, 2, len(txn.Postings))
		assert.Equal(t, "confirmation", txn.Postings[0].Meta()[0].Key)
	})

	t.Run("datetime date", func(t *testing.T) {
		file := parse(t, `2025-04-01T13:45:30Z * "Timestamped"
  Assets:A  1 USD
  Assets:B`)

		txn := file.Directives[0].(*ast.Transaction)
		assert.Equal(t, "13:45:30", txn.When.Time)
		assert.Equal(t, "Z", txn.When.Zone)
	})
}

func TestParse_CostSpecs(t *testing.T) {
	t.Run("per-unit cost", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Buy"
  Assets:Broker  2 VT {150 CHF}
  Assets:Broker`)

		cost := file.Directives[0].(*ast.Transaction).Postings[0].Cost
		assert.Equal(t, ast.CostPerUnit, cost.Kind)
		assert.Equal(t, 1, len(cost.Amounts))
		assert.Equal(t, "150", cost.Amounts[0].Value)
	})

	t.Run("total cost", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Buy"
  Assets:Broker  2 VT {{300 CHF}}
  Assets:Broker`)

		cost := file.Directives[0].(*ast.Transaction).Postings[0].Cost
		assert.Equal(t, ast.CostTotal, cost.Kind)
	})

	t.Run("multi-currency lot with date", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Provide liquidity"
  Assets:Pool  1 LP {10 USD, 0.5 ETH, 2025-03-31}
  Assets:Wallet`)

		cost := file.Directives[0].(*ast.Transaction).Postings[0].Cost
		assert.Equal(t, 2, len(cost.Amounts))
		assert.Equal(t, 1, len(cost.Dates))
		assert.Equal(t, "2025-03-31", cost.Dates[0].Date)
	})

	t.Run("empty reduction spec", func(t *testing.T) {
		file := parse(t, `2025-04-02 * "Sell"
  Assets:Broker  -2 VT {}
  Assets:Broker  350 CHF
  Income:Trading`)

		cost := file.Directives[0].(*ast.Transaction).Postings[0].Cost
		assert.NotZero(t, cost)
		assert.True(t, cost.IsEmpty())
	})

	t.Run("reduction filters", func(t *testing.T) {
		file := parse(t, `2025-04-02 * "Sell"
  Assets:Broker  -1 VT {CHF, 2025-04-01, #core}
  Assets:Broker  120 CHF
  Income:Trading`)

		cost := file.Directives[0].(*ast.Transaction).Postings[0].Cost
		assert.Equal(t, []string{"CHF"}, cost.Currencies)
		assert.Equal(t, 1, len(cost.Dates))
		assert.Equal(t, []string{"core"}, cost.Tags)
	})
}

func TestParse_Expressions(t *testing.T) {
	t.Run("division", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Split"
  Assets:A  (300 / 2) CHF
  Assets:B`)

		amount := file.Directives[0].(*ast.Transaction).Postings[0].Amount
		assert.Equal(t, "150", amount.Value)
	})

	t.Run("precedence", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Math"
  Assets:A  (2 + 3 * 4) USD
  Assets:B`)

		amount := file.Directives[0].(*ast.Transaction).Postings[0].Amount
		assert.Equal(t, "14", amount.Value)
	})

	t.Run("division is exact", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Exact"
  Assets:A  (1 / 3 * 3) USD
  Assets:B`)

		amount := file.Directives[0].(*ast.Transaction).Postings[0].Amount
		assert.Equal(t, "1", amount.Value)
	})

	t.Run("non-terminating division keeps the rational form", func(t *testing.T) {
		file := parse(t, `2025-04-01 * "Thirds"
  Assets:A  (100 / 3) USD
  Assets:B`)

		amount := file.Directives[0].(*ast.Transaction).Postings[0].Amount
		assert.Equal(t, "100/3", amount.Value)
	})

	t.Run("division by zero fails", func(t *testing.T) {
		_, err := ParseString(context.Background(), `2025-04-01 * "Bad"
  Assets:A  (1 / 0) USD
  Assets:B`)
		assert.Error(t, err)
	})
}

func TestParse_OptionsAndIncludes(t *testing.T) {
	file := parse(t, `option "default-timezone" "Europe/Zurich"
include "accounts.ledger"

2025-01-01 open Assets:Bank`)

	assert.Equal(t, 1, len(file.Options))
	assert.Equal(t, "default-timezone", file.Options[0].Name)
	assert.Equal(t, "Europe/Zurich", file.Options[0].Value)

	assert.Equal(t, 1, len(file.Includes))
	assert.Equal(t, "accounts.ledger", file.Includes[0].Filename)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown keyword after date", "2025-01-01 frobnicate Assets:Bank"},
		{"invalid account root", "2025-01-01 open Banking:Checking"},
		{"missing description", `2025-01-01 *`},
		{"unclosed cost spec", "2025-04-01 * \"Buy\"\n  Assets:Broker  2 VT {150 CHF\n  Assets:Broker"},
		{"garbage at top level", "hello world"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(context.Background(), tc.src)
			assert.Error(t, err)

			perr := &ParseError{}
			ok := asParseError(err, &perr)
			assert.True(t, ok)
			assert.True(t, perr.Pos.Line >= 1)
		})
	}
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func TestParse_PositionsCarryFilename(t *testing.T) {
	file, err := ParseBytesWithFilename(context.Background(), "main.ledger", []byte("2025-01-01 open Assets:Bank"))
	assert.NoError(t, err)
	assert.Equal(t, "main.ledger", file.Directives[0].Position().Filename)
	assert.Equal(t, 1, file.Directives[0].Position().Line)
}
