package ledger

import (
	"github.com/avandenberg/ledgerbook/ast"
)

// Option resolution. Three hierarchies feed the booker:
//
//   - account-reference-checks: read from the directive's frozen option-map
//     snapshot; one of none, lenient (default), strict.
//   - trading-account: posting meta, then transaction meta, then the open
//     directive's meta, then the Trading:Default literal.
//   - booking-method: posting meta, then transaction meta, then open meta,
//     then the booking-method option, then fifo.

// ReferenceChecks is the account-reference-checks mode.
type ReferenceChecks int

const (
	// ChecksNone disables account checks entirely.
	ChecksNone ReferenceChecks = iota
	// ChecksLenient rejects postings to closed accounts but tolerates
	// accounts that were never opened.
	ChecksLenient
	// ChecksStrict additionally rejects accounts that were never opened.
	ChecksStrict
)

func (c ReferenceChecks) String() string {
	switch c {
	case ChecksNone:
		return "none"
	case ChecksStrict:
		return "strict"
	default:
		return "lenient"
	}
}

// referenceChecks reads the account-reference-checks mode from an option-map
// snapshot.
func referenceChecks(opts ast.OptionMap) (ReferenceChecks, error) {
	switch mode := opts.Get("account-reference-checks", "lenient"); mode {
	case "none":
		return ChecksNone, nil
	case "lenient":
		return ChecksLenient, nil
	case "strict":
		return ChecksStrict, nil
	default:
		return 0, &InvalidOptionError{
			Name:   "account-reference-checks",
			Value:  mode,
			Reason: "must be one of none, lenient, strict",
		}
	}
}

// checkAccount applies the reference-checks mode to one posting account.
// With allowClosed set, postings to closed accounts pass under lenient and
// strict mode.
func checkAccount(mode ReferenceChecks, accounts AccountMap, account ast.Account, allowClosed bool) error {
	if mode == ChecksNone {
		return nil
	}

	state, ok := accounts[account]
	if !ok {
		if mode == ChecksStrict {
			return &AccountNotOpenError{Account: account}
		}
		return nil
	}

	if state.Status == StatusClosed && !allowClosed {
		return &AccountClosedError{Account: account}
	}

	return nil
}

// DefaultTradingAccount receives the synthetic cost-transfer postings when no
// trading-account metadata overrides it.
const DefaultTradingAccount = ast.Account("Trading:Default")

// tradingAccountKey is the metadata key consulted by the trading-account
// hierarchy; its value must be account-typed.
const tradingAccountKey = "trading-account"

// bookingMethodKey is the metadata and option key consulted by the
// booking-method hierarchy.
const bookingMethodKey = "booking-method"

// resolveTradingAccount walks the trading-account hierarchy for one posting.
func resolveTradingAccount(posting *ast.Posting, txn *ast.Transaction, open *AccountState) (ast.Account, error) {
	for _, v := range []*ast.MetadataValue{
		posting.MetaValue(tradingAccountKey),
		txn.MetaValue(tradingAccountKey),
		accountMetaValue(open, tradingAccountKey),
	} {
		if v == nil {
			continue
		}
		if v.Account == nil {
			return "", &InvalidOptionError{
				Name:   tradingAccountKey,
				Value:  v.String(),
				Reason: "value must be an account",
			}
		}
		return *v.Account, nil
	}
	return DefaultTradingAccount, nil
}

// resolveBookingMethod walks the booking-method hierarchy for one posting.
func resolveBookingMethod(posting *ast.Posting, txn *ast.Transaction, open *AccountState) (Method, error) {
	for _, v := range []*ast.MetadataValue{
		posting.MetaValue(bookingMethodKey),
		txn.MetaValue(bookingMethodKey),
		accountMetaValue(open, bookingMethodKey),
	} {
		if v == nil {
			continue
		}
		method, err := MethodFromName(v.String())
		if err != nil {
			return 0, &InvalidOptionError{Name: bookingMethodKey, Value: v.String(), Reason: "unknown booking method"}
		}
		return method, nil
	}

	if name, ok := txn.Options()[bookingMethodKey]; ok {
		method, err := MethodFromName(name)
		if err != nil {
			return 0, &InvalidOptionError{Name: bookingMethodKey, Value: name, Reason: "unknown booking method"}
		}
		return method, nil
	}

	return DefaultMethod, nil
}

func accountMetaValue(state *AccountState, key string) *ast.MetadataValue {
	if state == nil {
		return nil
	}
	return state.MetaValue(key)
}
