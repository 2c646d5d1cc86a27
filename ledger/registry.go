package ledger

import (
	"github.com/avandenberg/ledgerbook/ast"
)

// AccountStatus is the lifecycle state of a registered account.
type AccountStatus int

const (
	// StatusOpen marks an account that may be posted to.
	StatusOpen AccountStatus = iota
	// StatusClosed marks an account whose lifetime has ended; it may be
	// reopened by a later open directive.
	StatusClosed
)

func (s AccountStatus) String() string {
	if s == StatusClosed {
		return "closed"
	}
	return "open"
}

// AccountState holds what the registry knows about one account: its status,
// the currency restriction from its open directive (empty means any currency
// is allowed), and the directive metadata.
type AccountState struct {
	Status     AccountStatus
	Currencies []string
	Metadata   []*ast.Metadata
}

// Allows reports whether the account may hold the given currency.
func (s *AccountState) Allows(currency string) bool {
	if len(s.Currencies) == 0 {
		return true
	}
	for _, c := range s.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// MetaValue returns the account metadata value for key, or nil.
func (s *AccountState) MetaValue(key string) *ast.MetadataValue {
	for _, m := range s.Metadata {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// AccountMap is the account registry threaded through booking.
type AccountMap map[ast.Account]*AccountState

// Clone returns a shallow copy; AccountState values are replaced wholesale on
// open/close, never mutated in place.
func (m AccountMap) Clone() AccountMap {
	out := make(AccountMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CurrencyMap is the currency registry: declared code to its directive,
// which carries decimal-format and naming metadata.
type CurrencyMap map[string]*ast.Currency

// Clone returns a shallow copy of the registry.
func (m CurrencyMap) Clone() CurrencyMap {
	out := make(CurrencyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// InventoryMap maps accounts to their inventories. The driver owns the
// running map; each transaction produces a new snapshot and prior snapshots
// stay referentially intact for downstream consumers.
type InventoryMap map[ast.Account]*Inventory

// Clone returns a shallow copy. Inventories themselves are persistent values,
// so sharing them between snapshots is safe.
func (m InventoryMap) Clone() InventoryMap {
	out := make(InventoryMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get returns the account's inventory, or an empty one when the account has
// no positions yet.
func (m InventoryMap) Get(account ast.Account) *Inventory {
	if inv, ok := m[account]; ok {
		return inv
	}
	return NewInventory()
}
