package ledgerbook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/avandenberg/ledgerbook/ledger"
)

func TestBookString_EndToEnd(t *testing.T) {
	booked, err := BookString(context.Background(), `
2025-01-01 open Assets:Broker
2025-01-01 open Income:Trading

2025-04-01 * "Open Long"
  Assets:Broker  2 VT {{300 CHF}}
  Assets:Broker

2025-04-02 * "Close Long"
  Assets:Broker  -2 VT {}
  Assets:Broker  350 CHF
  Income:Trading
`)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(booked.Transactions))

	// Realized gain lands on the income account.
	income := booked.Inventories.Get("Income:Trading")
	assert.Equal(t, "-50 CHF", income.Total("CHF").String())

	// The broker keeps the proceeds net of cost.
	broker := booked.Inventories.Get("Assets:Broker")
	assert.Equal(t, "50 CHF", broker.Total("CHF").String())
	assert.Equal(t, 0, len(broker.PositionsFor("VT")))
}

func TestBookString_SurfacesDirectiveErrors(t *testing.T) {
	_, err := BookString(context.Background(), `
2025-01-01 open Assets:A
2025-01-01 open Assets:B

2025-05-01 * "Broken"
  Assets:A  10 USD
  Assets:B  -9 USD
`)

	var directiveErr *ledger.DirectiveError
	assert.True(t, errors.As(err, &directiveErr))

	var unbalanced *ledger.TransactionUnbalancedError
	assert.True(t, errors.As(err, &unbalanced))
}

func TestBookFile_FollowsIncludes(t *testing.T) {
	tmpDir := t.TempDir()

	accounts := filepath.Join(tmpDir, "accounts.ledger")
	assert.NoError(t, os.WriteFile(accounts, []byte(`
2025-01-01 open Assets:Bank
2025-01-01 open Equity:Opening
`), 0o644))

	main := filepath.Join(tmpDir, "main.ledger")
	assert.NoError(t, os.WriteFile(main, []byte(`
include "accounts.ledger"

2025-05-01 * "Deposit"
  Assets:Bank  10.00 CHF
  Equity:Opening

2025-06-01 balance Assets:Bank 10.01 CHF ~ 0.02
`), 0o644))

	booked, err := BookFile(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(booked.Transactions))
	assert.Equal(t, "10 CHF", booked.Inventories.Get("Assets:Bank").Total("CHF").String())
}
