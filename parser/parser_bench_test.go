package parser

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// syntheticLedger generates a ledger with n transactions for benchmarking.
func syntheticLedger(n int) []byte {
	var sb strings.Builder
	sb.WriteString("option \"default-timezone\" \"Europe/Zurich\"\n\n")
	sb.WriteString("2025-01-01 open Assets:Bank\n")
	sb.WriteString("2025-01-01 open Assets:Broker\n")
	sb.WriteString("2025-01-01 open Expenses:Food\n")
	sb.WriteString("2025-01-01 open Income:Trading\n\n")

	for i := 0; i < n; i++ {
		day := i%28 + 1
		switch i % 3 {
		case 0:
			fmt.Fprintf(&sb, "2025-02-%02d * \"Groceries %d\" #food\n  Expenses:Food  45.60 USD\n  Assets:Bank\n\n", day, i)
		case 1:
			fmt.Fprintf(&sb, "2025-03-%02d * \"Buy %d\"\n  Assets:Broker  2 VT {{300.00 CHF}}\n  Assets:Bank\n\n", day, i)
		case 2:
			fmt.Fprintf(&sb, "2025-04-%02d * \"Sell %d\"\n  Assets:Broker  -1 VT {}\n  Assets:Bank  160.00 CHF\n  Income:Trading\n\n", day, i)
		}
	}

	return []byte(sb.String())
}

func BenchmarkParseSmall(b *testing.B) {
	data := syntheticLedger(10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseBytes(context.Background(), data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseLarge(b *testing.B) {
	data := syntheticLedger(5000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseBytes(context.Background(), data); err != nil {
			b.Fatal(err)
		}
	}
}
