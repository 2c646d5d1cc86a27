package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/avandenberg/ledgerbook/ast"
)

// Cost is the resolved cost basis of a lot: a non-empty ordered sequence of
// per-unit amounts (multi-currency lots are allowed, e.g. LP tokens priced in
// two assets), the UTC lot instant, the raw date-spec retained for reduction
// matching, and the ordered lot tags.
//
// Lot identity is structural over (amounts as a set of value/currency pairs,
// instant); two parser runs over the same source produce the same key.
type Cost struct {
	Amounts []Amount
	Instant time.Time
	Spec    *ast.DateSpec
	Tags    []string
}

// Key returns the structural fingerprint used to aggregate lots in an
// inventory. Amounts are ordered canonically so the key is independent of
// source order.
func (c *Cost) Key() string {
	if c == nil {
		return ""
	}

	parts := make([]string, len(c.Amounts))
	for i, a := range c.Amounts {
		parts[i] = a.rat.RatString() + " " + a.Currency
	}
	sort.Strings(parts)

	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p)
		sb.WriteByte(',')
	}
	sb.WriteByte('@')
	sb.WriteString(c.Instant.UTC().Format(time.RFC3339Nano))
	return sb.String()
}

// Equal reports structural lot equality: same amounts as a set and same
// instant. Tags and the raw date-spec do not participate in identity.
func (c *Cost) Equal(o *Cost) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Key() == o.Key()
}

// HasCurrency reports whether any of the cost amounts is denominated in the
// given currency.
func (c *Cost) HasCurrency(currency string) bool {
	for _, a := range c.Amounts {
		if a.Currency == currency {
			return true
		}
	}
	return false
}

// HasTag reports whether the lot carries the given tag.
func (c *Cost) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// String renders the cost in source-like form: {amounts, date, #tags}.
func (c *Cost) String() string {
	if c == nil {
		return "{}"
	}

	parts := make([]string, 0, len(c.Amounts)+1+len(c.Tags))
	for _, a := range c.Amounts {
		parts = append(parts, a.String())
	}
	if c.Spec != nil {
		parts = append(parts, c.Spec.String())
	} else if !c.Instant.IsZero() {
		parts = append(parts, c.Instant.UTC().Format("2006-01-02"))
	}
	for _, t := range c.Tags {
		parts = append(parts, "#"+t)
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// Position is an amount optionally held at a cost. A position with a nil
// cost is held at no cost; one with a cost is a lot. A position's amount is
// never zero; zero positions are elided by the inventory.
type Position struct {
	Amount Amount
	Cost   *Cost
}

// String renders the position, appending the cost when present.
func (p Position) String() string {
	if p.Cost == nil {
		return p.Amount.String()
	}
	return p.Amount.String() + " " + p.Cost.String()
}
