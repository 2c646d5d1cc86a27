package ast

// Transaction records a financial transaction with a date, flag, description,
// and a list of postings. The flag indicates transaction status: '*' for
// completed transactions, '!' for pending ones; the keyword form "txn" leaves
// the flag empty. The sum of all booked posting amounts must balance to zero
// in every currency (double-entry bookkeeping). At most one posting may omit
// both amount and cost; this elastic posting absorbs the residual.
//
// Example:
//
//	2025-04-01 * "Open Long"
//	  Assets:Broker  2 VT {{300 CHF}}
//	  Assets:Broker
//
//	2025-06-08 ! "Transfer to Savings" #savings-goal
//	  Assets:Bank:Checking  -100.00 USD
//	  Assets:Bank:Savings    100.00 USD
type Transaction struct {
	Pos         Position
	When        *DateSpec
	Flag        string
	Description string
	Tags        []Tag

	withMetadata
	withOptions

	Postings []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) Date() *DateSpec    { return t.When }
func (t *Transaction) Directive() string  { return "transaction" }

// Posting represents a single leg of a transaction, specifying an account and
// optional amount and cost spec. A posting with an amount and a cost spec
// carrying amounts is an augmentation (new units at a given cost); one with
// an amount and a cost spec without amounts is a reduction resolved by the
// booking method; one with neither amount nor cost is elastic.
//
// Example postings within transactions:
//
//	Assets:Broker    2 VT {150 CHF}   ; augmentation
//	Assets:Broker   -2 VT {}          ; reduction
//	Expenses:Food    45.60 USD        ; plain posting
//	Assets:Checking                   ; elastic
type Posting struct {
	Pos     Position
	Flag    string
	Account Account
	Amount  *Amount
	Cost    *CostSpec

	withMetadata
}

// IsElastic reports whether the posting has neither amount nor cost spec.
func (p *Posting) IsElastic() bool {
	return p.Amount == nil && p.Cost == nil
}
