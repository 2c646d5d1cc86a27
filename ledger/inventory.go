package ledger

import (
	"sort"
	"strings"
)

// Inventory tracks the positions of one account, grouped by currency and lot
// identity. Positions without cost share a single entry per currency; lots
// are keyed by the structural cost fingerprint, so two positions of the same
// currency with different lot keys coexist.
//
// Inventories are persistent values: every mutating operation returns a new
// inventory and leaves the receiver untouched, which lets the booker hand out
// per-transaction snapshots without defensive copying. The invariant enforced
// on every mutation is that no zero-amount position is ever stored.
type Inventory struct {
	// currency -> lot key -> position; lot key "" for positions without cost
	positions map[string]map[string]Position
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{positions: make(map[string]map[string]Position)}
}

// IsEmpty returns true if the inventory holds no positions.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.positions) == 0
}

// Len returns the number of positions held.
func (inv *Inventory) Len() int {
	n := 0
	for _, lots := range inv.positions {
		n += len(lots)
	}
	return n
}

// Positions returns all positions in stable order: by currency ascending,
// then no-cost positions first, then lots by date ascending, breaking ties by
// lot key.
func (inv *Inventory) Positions() []Position {
	out := make([]Position, 0, inv.Len())

	currencies := make([]string, 0, len(inv.positions))
	for currency := range inv.positions {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	for _, currency := range currencies {
		out = append(out, inv.positionsFor(currency)...)
	}
	return out
}

// PositionsFor returns the positions of a single currency in the same stable
// order as Positions.
func (inv *Inventory) PositionsFor(currency string) []Position {
	return inv.positionsFor(currency)
}

func (inv *Inventory) positionsFor(currency string) []Position {
	lots := inv.positions[currency]
	out := make([]Position, 0, len(lots))
	for _, p := range lots {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i], out[j]
		if (pi.Cost == nil) != (pj.Cost == nil) {
			return pi.Cost == nil
		}
		if pi.Cost == nil {
			return false
		}
		if !pi.Cost.Instant.Equal(pj.Cost.Instant) {
			return pi.Cost.Instant.Before(pj.Cost.Instant)
		}
		return pi.Cost.Key() < pj.Cost.Key()
	})
	return out
}

// Total sums all positions of a currency across lots. Used by balance
// assertions.
func (inv *Inventory) Total(currency string) Amount {
	total := Zero(currency)
	for _, p := range inv.positions[currency] {
		total, _ = total.Add(p.Amount)
	}
	return total
}

// AddAmount adds an amount held at no cost. Equivalent to adding
// Position{Amount: a}.
func (inv *Inventory) AddAmount(a Amount) *Inventory {
	return inv.AddPosition(Position{Amount: a})
}

// AddPosition folds a position into the inventory by lot key and returns the
// new inventory. Zero-amount positions are a no-op; an addition that nets an
// existing entry to zero removes it.
func (inv *Inventory) AddPosition(p Position) *Inventory {
	if p.Amount.IsZero() {
		return inv
	}

	next := inv.clone()
	currency := p.Amount.Currency
	key := p.Cost.Key()

	lots, ok := next.positions[currency]
	if !ok {
		lots = make(map[string]Position, 1)
	} else {
		lots = cloneLots(lots)
	}
	next.positions[currency] = lots

	if existing, ok := lots[key]; ok {
		sum, err := existing.Amount.Add(p.Amount)
		if err != nil {
			// Lot keys are scoped per currency, so the currencies match.
			panic(err)
		}
		if sum.IsZero() {
			delete(lots, key)
			if len(lots) == 0 {
				delete(next.positions, currency)
			}
			return next
		}
		lots[key] = Position{Amount: sum, Cost: existing.Cost}
		return next
	}

	lots[key] = p
	return next
}

// AddPositions folds multiple positions and returns the new inventory.
func (inv *Inventory) AddPositions(ps ...Position) *Inventory {
	next := inv
	for _, p := range ps {
		next = next.AddPosition(p)
	}
	return next
}

// Partition splits the positions by a predicate into (matching, rest). Used
// by reductions to narrow the lots a booking method may consume.
func (inv *Inventory) Partition(pred func(Position) bool) (matching, rest *Inventory) {
	matching, rest = NewInventory(), NewInventory()
	for currency, lots := range inv.positions {
		for key, p := range lots {
			target := rest
			if pred(p) {
				target = matching
			}
			lotMap, ok := target.positions[currency]
			if !ok {
				lotMap = make(map[string]Position)
				target.positions[currency] = lotMap
			}
			lotMap[key] = p
		}
	}
	return matching, rest
}

// Merge folds every position of other into the inventory and returns the new
// inventory.
func (inv *Inventory) Merge(other *Inventory) *Inventory {
	next := inv
	for _, p := range other.Positions() {
		next = next.AddPosition(p)
	}
	return next
}

// clone makes a shallow copy of the currency map; inner lot maps are copied
// lazily by AddPosition.
func (inv *Inventory) clone() *Inventory {
	next := &Inventory{positions: make(map[string]map[string]Position, len(inv.positions))}
	for currency, lots := range inv.positions {
		next.positions[currency] = lots
	}
	return next
}

func cloneLots(lots map[string]Position) map[string]Position {
	out := make(map[string]Position, len(lots)+1)
	for k, v := range lots {
		out[k] = v
	}
	return out
}

// String renders the inventory in stable order, for error messages and tests.
func (inv *Inventory) String() string {
	if inv.IsEmpty() {
		return "()"
	}

	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range inv.Positions() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
