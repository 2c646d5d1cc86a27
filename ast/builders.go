package ast

import "strings"

// Constructor functions for programmatically building ledger nodes. These
// builders make it easy to generate directives from code, such as importers
// or tests, without going through the parser.
//
// The builders use functional options for complex types like transactions and
// postings, following Go idioms for configurable constructors.

// NewAmount creates a new Amount with the given value and currency.
// The value should be a decimal string (e.g., "100.50", "-42.00").
// No validation is performed on the value or currency.
//
// Example:
//
//	amount := ast.NewAmount("45.60", "USD")
func NewAmount(value, currency string) *Amount {
	return &Amount{
		Value:    value,
		Currency: currency,
	}
}

// NewAccount creates an Account from the given name string and validates it.
//
// Example:
//
//	account, err := ast.NewAccount("Assets:Bank:Checking")
func NewAccount(name string) (Account, error) {
	account := Account(name)
	if err := account.Validate(); err != nil {
		return "", err
	}
	return account, nil
}

// NewTag creates a Tag from the given name.
// If the name starts with #, it is stripped. Otherwise the name is used as-is.
func NewTag(name string) Tag {
	return Tag(strings.TrimPrefix(name, "#"))
}

// NewMetadata creates a Metadata key-value pair with a string value.
func NewMetadata(key, value string) *Metadata {
	return &Metadata{Key: key, Value: &MetadataValue{StringValue: &value}}
}

// NewAccountMetadata creates a Metadata key-value pair with an account-typed
// value, as required by the trading-account hierarchy.
func NewAccountMetadata(key string, account Account) *Metadata {
	return &Metadata{Key: key, Value: &MetadataValue{Account: &account}}
}

// TransactionOption configures a transaction under construction.
type TransactionOption func(*Transaction)

// WithFlag sets the transaction flag ("*" or "!").
func WithFlag(flag string) TransactionOption {
	return func(t *Transaction) { t.Flag = flag }
}

// WithTags appends tags to the transaction.
func WithTags(tags ...Tag) TransactionOption {
	return func(t *Transaction) { t.Tags = append(t.Tags, tags...) }
}

// WithPostings appends postings to the transaction.
func WithPostings(postings ...*Posting) TransactionOption {
	return func(t *Transaction) { t.Postings = append(t.Postings, postings...) }
}

// WithTransactionMetadata appends metadata entries to the transaction.
func WithTransactionMetadata(meta ...*Metadata) TransactionOption {
	return func(t *Transaction) { t.AddMetadata(meta...) }
}

// NewTransaction creates a transaction with the given date, description, and
// options. The flag defaults to "*".
//
// Example:
//
//	txn := ast.NewTransaction(ast.MustDateSpec("2025-04-01"), "Open Long",
//	    ast.WithPostings(
//	        ast.NewPosting("Assets:Broker", ast.WithAmount("2", "VT"),
//	            ast.WithCost(ast.CostTotal, ast.NewAmount("300", "CHF"))),
//	        ast.NewPosting("Assets:Broker"),
//	    ),
//	)
func NewTransaction(date *DateSpec, description string, opts ...TransactionOption) *Transaction {
	t := &Transaction{
		When:        date,
		Flag:        "*",
		Description: description,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PostingOption configures a posting under construction.
type PostingOption func(*Posting)

// WithAmount sets the posting amount.
func WithAmount(value, currency string) PostingOption {
	return func(p *Posting) { p.Amount = NewAmount(value, currency) }
}

// WithCost attaches a cost spec carrying the given amounts.
func WithCost(kind CostKind, amounts ...*Amount) PostingOption {
	return func(p *Posting) {
		p.Cost = &CostSpec{Kind: kind, Amounts: amounts}
	}
}

// WithCostSpec attaches a fully built cost spec, for reductions with filters.
func WithCostSpec(spec *CostSpec) PostingOption {
	return func(p *Posting) { p.Cost = spec }
}

// WithPostingMetadata appends metadata entries to the posting.
func WithPostingMetadata(meta ...*Metadata) PostingOption {
	return func(p *Posting) { p.AddMetadata(meta...) }
}

// NewPosting creates a posting for the given account. Without options the
// posting is elastic (no amount, no cost).
func NewPosting(account Account, opts ...PostingOption) *Posting {
	p := &Posting{Account: account}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
