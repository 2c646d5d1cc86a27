// Package report renders booked ledgers for human consumption: the final
// balances per account and the journal of booked transactions. Reports are
// pure functions over a BookedLedger; the snapshots they read are immutable,
// so rendering never coordinates with booking.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/ledger"
)

// Options filters and shapes a report.
type Options struct {
	// AccountPrefix limits output to accounts with this prefix. Empty means
	// all accounts.
	AccountPrefix string
}

// matches applies the account filter.
func (o Options) matches(account ast.Account) bool {
	return o.AccountPrefix == "" || strings.HasPrefix(string(account), o.AccountPrefix)
}

// Balances writes the final inventory of every account, lot-expanded, in a
// two-column layout with amounts right-aligned.
func Balances(w io.Writer, booked *ledger.BookedLedger, opts Options) error {
	accounts := make([]ast.Account, 0, len(booked.Inventories))
	for account, inv := range booked.Inventories {
		if inv.IsEmpty() || !opts.matches(account) {
			continue
		}
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	type row struct {
		account  string
		position string
	}

	rows := make([]row, 0, len(accounts))
	nameWidth := 0
	for _, account := range accounts {
		name := string(account)
		for i, p := range booked.Inventories[account].Positions() {
			r := row{position: p.String()}
			if i == 0 {
				r.account = name
				if w := runewidth.StringWidth(name); w > nameWidth {
					nameWidth = w
				}
			}
			rows = append(rows, r)
		}
	}

	amountWidth := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.position); w > amountWidth {
			amountWidth = w
		}
	}

	for _, r := range rows {
		name := runewidth.FillRight(r.account, nameWidth)
		position := runewidth.FillLeft(r.position, amountWidth)
		if _, err := fmt.Fprintf(w, "%s  %s\n", name, position); err != nil {
			return err
		}
	}

	return nil
}

// Journal writes every booked transaction with its expanded postings.
func Journal(w io.Writer, booked *ledger.BookedLedger, opts Options) error {
	for _, txn := range booked.Transactions {
		postings := make([]*ledger.BookedPosting, 0, len(txn.Postings))
		for _, p := range txn.Postings {
			if opts.matches(p.Account) {
				postings = append(postings, p)
			}
		}
		if len(postings) == 0 {
			continue
		}

		flag := txn.Flag
		if flag == "" {
			flag = "txn"
		}
		if _, err := fmt.Fprintf(w, "%s %s %q\n", txn.Date.Format("2006-01-02"), flag, txn.Description); err != nil {
			return err
		}

		nameWidth := 0
		for _, p := range postings {
			if w := runewidth.StringWidth(string(p.Account)); w > nameWidth {
				nameWidth = w
			}
		}

		for _, p := range postings {
			name := runewidth.FillRight(string(p.Account), nameWidth)
			line := fmt.Sprintf("  %s  %s", name, p.Amount)
			if p.Cost != nil {
				line += " " + p.Cost.String()
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
