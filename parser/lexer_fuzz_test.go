package parser

import (
	"context"
	"testing"
)

func FuzzLexer(f *testing.F) {
	// Seed corpus with various token types
	seeds := []string{
		// Symbols
		"*", "!", ":", ",", "~", "{", "}", "{{", "}}", "(", ")", "/", "+", "-",

		// Dates and datetimes
		"2025-01-01", "2025-12-31", "2024-02-29",
		"2025-04-01T13:45", "2025-04-01T13:45:30Z",
		"2025-04-01T13:45+01:00", "2025-04-01T13:45Europe/Zurich",

		// Numbers
		"123", "123.45", "-123.45", "+123.45", "0.00", "1000000.00",

		// Strings
		"\"hello\"",
		"\"with spaces\"",
		"\"with \\\"quotes\\\"\"",
		"\"unterminated",

		// Accounts
		"Assets:Checking",
		"Expenses:Food:Restaurant",
		"Equity:Opening-Balances",
		"Trading:Default",

		// Tags
		"#tag", "#vacation", "#2025-trip",

		// Keywords
		"txn", "balance", "open", "close", "currency", "commodity",
		"option", "include",

		// Currencies
		"USD", "EUR", "CHF", "BTC", "ETH",

		// Comments
		"; comment",
		"  ; indented comment",
		"; comment with symbols: * ~ { }",

		// Whole directives
		"2025-01-01 open Assets:Bank USD,CHF",
		"2025-06-01 balance Assets:Bank 10.01 CHF ~ 0.02",
		"2025-04-01 * \"Buy\"\n  Assets:Broker  2 VT {{300 CHF}}\n  Assets:Broker\n",

		// Edge cases
		"", " ", "\n", "\t", "\r\n",
		"\x00", "\xff", "日本語",
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// The lexer must never panic and must always terminate with EOF.
		lexer := NewLexer([]byte(input), "fuzz")
		tokens := lexer.ScanAll()

		if len(tokens) == 0 {
			t.Fatal("expected at least the EOF token")
		}
		if tokens[len(tokens)-1].Type != EOF {
			t.Fatalf("expected trailing EOF, got %s", tokens[len(tokens)-1].Type)
		}

		// Token offsets must stay within the source buffer.
		for _, tok := range tokens {
			if tok.Start < 0 || tok.End > len(input) || tok.Start > tok.End {
				t.Fatalf("token %s has out-of-range offsets [%d, %d) for %d bytes",
					tok.Type, tok.Start, tok.End, len(input))
			}
		}
	})
}

func FuzzParser(f *testing.F) {
	seeds := []string{
		"2025-01-01 open Assets:Bank",
		"2025-06-01 balance Assets:Bank 10.00 CHF",
		"2025-04-01 * \"Buy\"\n  Assets:Broker  2 VT {150 CHF, 2025-03-31, #core}\n  Assets:Broker\n",
		"option \"default-timezone\" \"Europe/Zurich\"",
		"include \"accounts.ledger\"",
		"2025-04-01 txn \"Math\"\n  Assets:A  (2 + 3 * 4) USD\n  Assets:B\n",
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// The parser must never panic; errors are expected for most inputs.
		_, _ = ParseString(context.Background(), input)
	})
}
