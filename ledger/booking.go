package ledger

import (
	"fmt"
	"strings"

	"github.com/avandenberg/ledgerbook/ast"
)

// Method is a lot-selection strategy used to resolve reductions against an
// existing position. Given the requested amount and the account's usable
// inventory, a method decides which lots are consumed and in what order.
type Method int

const (
	// FIFO consumes the oldest lots first.
	FIFO Method = iota
	// LIFO consumes the newest lots first.
	LIFO
)

// DefaultMethod is used when no booking-method is configured anywhere in the
// metadata or option hierarchy.
const DefaultMethod = FIFO

func (m Method) String() string {
	switch m {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// MethodFromName resolves a booking-method name. Unknown names are an error,
// surfaced by the booker as an InvalidOptionError.
func MethodFromName(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return 0, fmt.Errorf("unknown booking method %q", name)
	}
}

// NotEnoughToReduceError is returned when the usable lots are exhausted
// before the requested reduction amount is fully consumed.
type NotEnoughToReduceError struct {
	Account   ast.Account
	Remainder Amount
}

func (e *NotEnoughToReduceError) Error() string {
	return fmt.Sprintf("not enough lots in %s to reduce, %s remaining", e.Account, e.Remainder)
}

// candidate is a lot under consideration by a booking method. The index
// records the lot's place in the inventory's stable position order (currency,
// then instant, then structural key); it breaks ties between lots sharing an
// instant, so extraction is deterministic across runs.
type candidate struct {
	pos   Position
	index int
}

// Book resolves a reduction of amount against the inventory and returns the
// emitted postings plus the new inventory. Only positions of the amount's
// currency that are held at cost participate; positions without cost are
// invisible to booking methods. Lots whose sign equals the requested sign are
// not reductions and are skipped. A zero amount books no postings and leaves
// the inventory unchanged.
func (m Method) Book(account ast.Account, flag string, meta []*ast.Metadata, amount Amount, inv *Inventory) ([]*BookedPosting, *Inventory, error) {
	if amount.IsZero() {
		return nil, inv, nil
	}

	candidates := make([]candidate, 0, 4)
	for i, p := range inv.PositionsFor(amount.Currency) {
		if p.Cost == nil {
			continue
		}
		candidates = append(candidates, candidate{pos: p, index: i})
	}

	// Max-heap comparator: the lot to consume next must compare greater,
	// so for FIFO the oldest lot is the maximum and for LIFO the newest.
	// Ties on the instant fall back to the candidates' stable position
	// order, keeping extraction deterministic.
	newer := func(a, b candidate) bool {
		ai, bi := a.pos.Cost.Instant, b.pos.Cost.Instant
		if !ai.Equal(bi) {
			return ai.After(bi)
		}
		return a.index > b.index
	}
	less := newer
	if m == LIFO {
		less = func(a, b candidate) bool { return newer(b, a) }
	}

	makeHeap(candidates, less)

	postings := make([]*BookedPosting, 0, 2)
	next := inv
	remaining := amount

	for !remaining.IsZero() && len(candidates) > 0 {
		var lot candidate
		candidates, lot = popHeap(candidates, less)

		// A lot with the requested sign is not a reduction; skip it.
		if lot.pos.Amount.Sign() == remaining.Sign() {
			continue
		}

		take := lot.pos.Amount.Neg()
		if take.Abs().rat.Cmp(remaining.Abs().rat) > 0 {
			take = remaining
		}

		postings = append(postings, &BookedPosting{
			Account:  account,
			Flag:     flag,
			Amount:   take,
			Cost:     lot.pos.Cost,
			Metadata: meta,
		})

		// Adding take (opposite sign) shrinks the lot; the inventory elides
		// it once it reaches zero.
		next = next.AddPosition(Position{Amount: take, Cost: lot.pos.Cost})
		remaining, _ = remaining.Sub(take)
	}

	if !remaining.IsZero() {
		return nil, nil, &NotEnoughToReduceError{Account: account, Remainder: remaining}
	}

	return postings, next, nil
}
