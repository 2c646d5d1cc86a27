package ledger

import (
	"time"

	"github.com/avandenberg/ledgerbook/ast"
)

// BookedPosting is a fully specified posting: the amount is always present
// and the cost, when any, is a resolved Cost rather than a CostSpec.
type BookedPosting struct {
	Account  ast.Account
	Flag     string
	Amount   Amount
	Cost     *Cost
	Metadata []*ast.Metadata
}

// String renders the posting in source-like form.
func (p *BookedPosting) String() string {
	s := string(p.Account) + " " + p.Amount.String()
	if p.Cost != nil {
		s += " " + p.Cost.String()
	}
	return s
}

// Transaction is a booked transaction: the expanded postings plus the
// inventory snapshots before and after. The snapshots are persistent values
// usable by reports without further coordination.
type Transaction struct {
	Date        time.Time
	Description string
	Flag        string
	Metadata    []*ast.Metadata
	Postings    []*BookedPosting

	InventoriesBefore InventoryMap
	InventoriesAfter  InventoryMap

	// Source is the directive this transaction was booked from, carrying
	// the file position.
	Source *ast.Transaction
}

// bookTransaction runs the per-transaction pipeline: account checks, posting
// expansion through the booking method where needed, synthetic trading
// postings, currency restriction checks, and the final zero-balance check.
// It returns either a fully booked transaction or the first error; the
// caller's inventory map is never touched, so every transaction commits
// atomically.
func bookTransaction(txn *ast.Transaction, inventories InventoryMap, accounts AccountMap) (*Transaction, error) {
	mode, err := referenceChecks(txn.Options())
	if err != nil {
		return nil, err
	}

	before := inventories.Clone()
	invs := inventories.Clone()
	balance := NewInventory()
	booked := make([]*BookedPosting, 0, len(txn.Postings)+2)

	for _, posting := range txn.Postings {
		if err := checkAccount(mode, accounts, posting.Account, false); err != nil {
			return nil, err
		}
		open := accounts[posting.Account]

		var emitted []*BookedPosting

		switch {
		case posting.Cost != nil && posting.Amount != nil && posting.Cost.HasAmounts():
			// Augmentation: new units held at a resolved cost, with the
			// cost routed through the trading account.
			emitted, invs, balance, err = bookAugmentation(txn, posting, open, invs, balance)

		case posting.Cost != nil && posting.Amount != nil:
			// Reduction: the booking method selects the lots to consume.
			emitted, invs, balance, err = bookReduction(txn, posting, open, invs, balance)

		case posting.Cost != nil:
			err = &InferenceUnsupportedError{Account: posting.Account}

		case posting.Amount != nil:
			// Plain posting at the stated amount.
			var amount Amount
			amount, err = ParseAmount(posting.Amount)
			if err == nil {
				p := &BookedPosting{
					Account:  posting.Account,
					Flag:     posting.Flag,
					Amount:   amount,
					Metadata: posting.Metadata,
				}
				emitted = []*BookedPosting{p}
				invs, balance = doBook(invs, balance, p)
			}

		default:
			// Elastic posting: absorb the residual, one posting per
			// currency position in the running balance.
			for _, pos := range balance.Positions() {
				emitted = append(emitted, &BookedPosting{
					Account:  posting.Account,
					Flag:     posting.Flag,
					Amount:   pos.Amount.Neg(),
					Metadata: posting.Metadata,
				})
			}
			invs, balance = doBook(invs, balance, emitted...)
		}

		if err != nil {
			return nil, err
		}

		for _, p := range emitted {
			if state, ok := accounts[p.Account]; ok && !state.Allows(p.Amount.Currency) {
				return nil, &CurrencyNotAllowedError{Account: p.Account, Currency: p.Amount.Currency}
			}
		}

		booked = append(booked, emitted...)
	}

	if !balance.IsEmpty() {
		return nil, &TransactionUnbalancedError{Residual: balance}
	}

	return &Transaction{
		Date:              txn.When.Instant,
		Description:       txn.Description,
		Flag:              txn.Flag,
		Metadata:          txn.Metadata,
		Postings:          booked,
		InventoriesBefore: before,
		InventoriesAfter:  invs,
		Source:            txn,
	}, nil
}

// bookAugmentation books a posting with an amount and a cost spec carrying
// amounts: the posting itself at the resolved per-unit cost, the negated
// amount at the trading account, and the total cost amounts at the trading
// account.
func bookAugmentation(txn *ast.Transaction, posting *ast.Posting, open *AccountState, invs InventoryMap, balance *Inventory) ([]*BookedPosting, InventoryMap, *Inventory, error) {
	spec := posting.Cost

	if len(spec.Currencies) > 0 {
		return nil, nil, nil, &AugmentationHasCurrencyFilterError{Currencies: spec.Currencies}
	}
	if len(spec.Dates) > 1 {
		return nil, nil, nil, &AugmentationMultipleDatesError{Count: len(spec.Dates)}
	}

	amount, err := ParseAmount(posting.Amount)
	if err != nil {
		return nil, nil, nil, err
	}

	cost, totals, err := resolveAugmentationCost(txn, spec, amount)
	if err != nil {
		return nil, nil, nil, err
	}

	trading, err := resolveTradingAccount(posting, txn, open)
	if err != nil {
		return nil, nil, nil, err
	}

	postings := make([]*BookedPosting, 0, 2+len(totals))
	postings = append(postings, &BookedPosting{
		Account:  posting.Account,
		Flag:     posting.Flag,
		Amount:   amount,
		Cost:     cost,
		Metadata: posting.Metadata,
	})
	postings = append(postings, &BookedPosting{Account: trading, Amount: amount.Neg()})
	for _, total := range totals {
		postings = append(postings, &BookedPosting{Account: trading, Amount: total})
	}

	invs, balance = doBook(invs, balance, postings...)
	return postings, invs, balance, nil
}

// resolveAugmentationCost derives the per-unit cost and the trading-side
// total amounts from a cost spec. Per-unit amounts are kept as written and
// multiplied by |amount| for the totals; total amounts are kept for the
// trading side and divided by |amount| for the per-unit cost. The lot date
// defaults to the transaction date unless the spec supplies exactly one.
func resolveAugmentationCost(txn *ast.Transaction, spec *ast.CostSpec, amount Amount) (*Cost, []Amount, error) {
	units := amount.Abs().Rat()

	perUnit := make([]Amount, 0, len(spec.Amounts))
	totals := make([]Amount, 0, len(spec.Amounts))
	for _, raw := range spec.Amounts {
		a, err := ParseAmount(raw)
		if err != nil {
			return nil, nil, err
		}

		switch spec.Kind {
		case ast.CostTotal:
			per, err := a.DivRat(units)
			if err != nil {
				return nil, nil, err
			}
			perUnit = append(perUnit, per)
			totals = append(totals, a)
		default:
			perUnit = append(perUnit, a)
			totals = append(totals, a.MulRat(units))
		}
	}

	date := txn.When
	if len(spec.Dates) == 1 {
		date = spec.Dates[0]
	}

	cost := &Cost{
		Amounts: perUnit,
		Instant: date.Instant,
		Spec:    date,
		Tags:    spec.Tags,
	}

	return cost, totals, nil
}

// bookReduction books a posting with an amount and a cost spec without
// amounts: the inventory is filtered by the spec's reduction filters, the
// booking method consumes lots out of the usable part, and each consumed lot
// is mirrored by trading postings carrying the cost out of the position.
func bookReduction(txn *ast.Transaction, posting *ast.Posting, open *AccountState, invs InventoryMap, balance *Inventory) ([]*BookedPosting, InventoryMap, *Inventory, error) {
	amount, err := ParseAmount(posting.Amount)
	if err != nil {
		return nil, nil, nil, err
	}

	method, err := resolveBookingMethod(posting, txn, open)
	if err != nil {
		return nil, nil, nil, err
	}

	trading, err := resolveTradingAccount(posting, txn, open)
	if err != nil {
		return nil, nil, nil, err
	}

	usable, rest := invs.Get(posting.Account).Partition(func(p Position) bool {
		return matchesReductionFilters(p, posting.Cost)
	})

	reductions, leftover, err := method.Book(posting.Account, posting.Flag, posting.Metadata, amount, usable)
	if err != nil {
		return nil, nil, nil, err
	}

	// The booking method is free to reshape the lots it was given, so its
	// leftover replaces the usable part wholesale.
	invs = invs.Clone()
	invs[posting.Account] = rest.Merge(leftover)

	emitted := make([]*BookedPosting, 0, len(reductions)*3)
	for _, rp := range reductions {
		emitted = append(emitted, rp)
		balance = balance.AddAmount(rp.Amount)

		trades := make([]*BookedPosting, 0, 1+len(rp.Cost.Amounts))
		trades = append(trades, &BookedPosting{Account: trading, Amount: rp.Amount.Neg()})
		for _, per := range rp.Cost.Amounts {
			trades = append(trades, &BookedPosting{Account: trading, Amount: per.MulRat(rp.Amount.Rat())})
		}

		invs, balance = doBook(invs, balance, trades...)
		emitted = append(emitted, trades...)
	}

	return emitted, invs, balance, nil
}

// matchesReductionFilters reports whether a lot passes every non-empty filter
// of a reduction cost spec. An empty filter field is a wildcard; positions
// without cost never match (they are invisible to booking methods).
func matchesReductionFilters(p Position, spec *ast.CostSpec) bool {
	if p.Cost == nil {
		return false
	}

	if len(spec.Currencies) > 0 {
		found := false
		for _, ccy := range spec.Currencies {
			if p.Cost.HasCurrency(ccy) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(spec.Tags) > 0 {
		found := false
		for _, tag := range spec.Tags {
			if p.Cost.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(spec.Dates) > 0 {
		found := false
		for _, d := range spec.Dates {
			if d.Instant.Equal(p.Cost.Instant) || d.Matches(p.Cost.Spec) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// doBook is the purely functional posting applicator: each posting's amount
// is added to its account's inventory (as a position with the posting's
// optional cost) and to the running balance. Fresh snapshots are returned;
// no shared mutable aliases are retained.
func doBook(invs InventoryMap, balance *Inventory, postings ...*BookedPosting) (InventoryMap, *Inventory) {
	next := invs.Clone()
	for _, p := range postings {
		next[p.Account] = next.Get(p.Account).AddPosition(Position{Amount: p.Amount, Cost: p.Cost})
		balance = balance.AddAmount(p.Amount)
	}
	return next, balance
}
