package ast

// Directive is the interface implemented by all dated ledger directive types.
type Directive interface {
	WithMetadata
	WithOptions

	Date() *DateSpec
	Position() Position
	Directive() string
}

// WithMetadata is an interface for nodes that can have metadata attached.
type WithMetadata interface {
	AddMetadata(...*Metadata)
	Meta() []*Metadata
}

// withMetadata is an embeddable struct that implements WithMetadata.
type withMetadata struct {
	Metadata []*Metadata
}

func (w *withMetadata) AddMetadata(m ...*Metadata) {
	w.Metadata = append(w.Metadata, m...)
}

func (w *withMetadata) Meta() []*Metadata { return w.Metadata }

// MetaValue returns the value for the given metadata key, or nil when absent.
func (w *withMetadata) MetaValue(key string) *MetadataValue {
	for _, m := range w.Metadata {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// WithOptions is an interface for directives carrying a frozen option-map
// snapshot assigned by the loader.
type WithOptions interface {
	SetOptions(OptionMap)
	Options() OptionMap
}

// withOptions is an embeddable struct that implements WithOptions.
type withOptions struct {
	options OptionMap
}

func (w *withOptions) SetOptions(m OptionMap) { w.options = m }

func (w *withOptions) Options() OptionMap { return w.options }

// Open declares the opening of an account at a specific date, marking the
// beginning of its lifetime in the ledger. You can optionally constrain which
// currencies the account may hold; an empty list means any currency is
// allowed. Reopening a previously closed account is permitted, opening an
// already-open one is not.
//
// Example:
//
//	2025-05-01 open Assets:Bank:Checking USD
//	2025-05-01 open Assets:Broker USD,CHF
//	  booking-method: "lifo"
type Open struct {
	Pos        Position
	When       *DateSpec
	Account    Account
	Currencies []string

	withMetadata
	withOptions
}

var _ Directive = &Open{}

func (o *Open) Position() Position { return o.Pos }
func (o *Open) Date() *DateSpec    { return o.When }
func (o *Open) Directive() string  { return "open" }

// Close declares the closing of an account at a specific date, marking the
// end of its lifetime in the ledger. A closed account can later be reopened
// with a new open directive.
//
// Example:
//
//	2025-09-23 close Assets:Bank:Checking
type Close struct {
	Pos     Position
	When    *DateSpec
	Account Account

	withMetadata
	withOptions
}

var _ Directive = &Close{}

func (c *Close) Position() Position { return c.Pos }
func (c *Close) Date() *DateSpec    { return c.When }
func (c *Close) Directive() string  { return "close" }

// Currency declares a currency or commodity that can be used in the ledger.
// The directive is optional but documents which codes are expected and can
// carry metadata such as display precision. Declaring the same code twice is
// an error. The keyword "commodity" is accepted as a synonym.
//
// Example:
//
//	2025-01-01 currency USD
//	  name: "US Dollar"
//	  format: "1,000.00"
type Currency struct {
	Pos  Position
	When *DateSpec
	Code string

	withMetadata
	withOptions
}

var _ Directive = &Currency{}

func (c *Currency) Position() Position { return c.Pos }
func (c *Currency) Date() *DateSpec    { return c.When }
func (c *Currency) Directive() string  { return "currency" }

// Balance asserts that an account holds a specific amount of a currency at a
// given date. An optional tolerance after ~ bounds the accepted absolute
// difference; it defaults to zero, i.e. an exact match.
//
// Example:
//
//	2025-06-01 balance Assets:Bank 10.00 CHF
//	2025-06-01 balance Assets:Bank 10.01 CHF ~ 0.02
type Balance struct {
	Pos       Position
	When      *DateSpec
	Account   Account
	Amount    *Amount
	Tolerance string // raw number, empty when not written

	withMetadata
	withOptions
}

var _ Directive = &Balance{}

func (b *Balance) Position() Position { return b.Pos }
func (b *Balance) Date() *DateSpec    { return b.When }
func (b *Balance) Directive() string  { return "balance" }

// Option sets a configuration parameter that affects how the ledger is
// processed. Options are consumed by the loader, which snapshots the map in
// effect onto every subsequently loaded directive.
//
// Example:
//
//	option "default-timezone" "Europe/Zurich"
//	option "booking-method" "lifo"
//	option "account-reference-checks" "strict"
type Option struct {
	Pos   Position
	Name  string
	Value string
}

func (o *Option) Position() Position { return o.Pos }

// Include imports directives from another ledger file. The path can be
// absolute or relative to the file containing the include directive. Circular
// includes are an error.
//
// Example:
//
//	include "accounts.ledger"
//	include "2025/expenses.ledger"
type Include struct {
	Pos      Position
	Filename string
}

func (i *Include) Position() Position { return i.Pos }
