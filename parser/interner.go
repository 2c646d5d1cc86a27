package parser

// Interner deduplicates the strings a ledger repeats endlessly: account
// names (one ledger rarely has more than a few hundred), currency codes (a
// handful), and metadata keys. Tokens are zero-copy offsets until
// materialized, so interning at materialization time is what keeps a
// 100k-transaction file from allocating a fresh "Assets:Bank:Checking" per
// posting.
type Interner struct {
	pool map[string]string
}

// seedStrings are codes and roots that occur in virtually every ledger;
// interning them up front avoids growing the pool for the common case.
var seedStrings = []string{
	"USD", "EUR", "CHF", "GBP",
	"Assets", "Liabilities", "Equity", "Income", "Expenses", "Trading",
	"booking-method", "trading-account",
}

// NewInterner creates an interner sized for the expected number of distinct
// strings, pre-seeded with the ubiquitous codes.
func NewInterner(capacity int) *Interner {
	pool := make(map[string]string, capacity+len(seedStrings))
	for _, s := range seedStrings {
		pool[s] = s
	}
	return &Interner{pool: pool}
}

// Intern returns the canonical instance of s, adding it to the pool on first
// sight.
func (i *Interner) Intern(s string) string {
	if canonical, ok := i.pool[s]; ok {
		return canonical
	}
	i.pool[s] = s
	return s
}

// InternBytes interns a token's bytes. The temporary string for the map
// lookup is elided by the compiler on the hit path, so repeated tokens cost
// no allocation.
func (i *Interner) InternBytes(b []byte) string {
	if canonical, ok := i.pool[string(b)]; ok {
		return canonical
	}
	s := string(b)
	i.pool[s] = s
	return s
}

// Size returns the number of pooled strings, seeds included.
func (i *Interner) Size() int {
	return len(i.pool)
}
