package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/avandenberg/ledgerbook/ast"
)

// benchLedger builds a directive stream with n buy/sell transaction pairs.
func benchLedger(n int) *ast.Ledger {
	directives := ast.Directives{
		openAccountBench("Assets:Broker"),
		openAccountBench("Assets:Bank"),
		openAccountBench("Income:Trading"),
	}

	for i := 0; i < n; i++ {
		day := i%27 + 1
		date := ast.MustDateSpec(fmt.Sprintf("2025-03-%02d", day))

		directives = append(directives, ast.NewTransaction(date, "Buy",
			ast.WithPostings(
				ast.NewPosting("Assets:Broker",
					ast.WithAmount("2", "VT"),
					ast.WithCost(ast.CostPerUnit, ast.NewAmount("150.00", "CHF"))),
				ast.NewPosting("Assets:Bank"),
			),
		))

		sellDate := ast.MustDateSpec(fmt.Sprintf("2025-04-%02d", day))
		directives = append(directives, ast.NewTransaction(sellDate, "Sell",
			ast.WithPostings(
				ast.NewPosting("Assets:Broker",
					ast.WithAmount("-1", "VT"),
					ast.WithCostSpec(&ast.CostSpec{})),
				ast.NewPosting("Assets:Bank", ast.WithAmount("160.00", "CHF")),
				ast.NewPosting("Income:Trading"),
			),
		))
	}

	ast.SortDirectives(directives)
	return &ast.Ledger{Directives: directives}
}

func openAccountBench(name string) *ast.Open {
	return &ast.Open{When: ast.MustDateSpec("2025-01-01"), Account: ast.Account(name)}
}

func BenchmarkBookSmall(b *testing.B) {
	ldg := benchLedger(10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Book(context.Background(), ldg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBookLarge(b *testing.B) {
	ldg := benchLedger(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Book(context.Background(), ldg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReduction_ManyLots(b *testing.B) {
	// One inventory with 1000 lots, reducing across half of them.
	inv := NewInventory()
	for i := 0; i < 1000; i++ {
		date := ast.MustDateSpec(fmt.Sprintf("2025-%02d-%02d", i%12+1, i%28+1))
		cost := &Cost{
			Amounts: []Amount{MustAmount(fmt.Sprintf("%d.50", i), "CHF")},
			Instant: date.Instant,
			Spec:    date,
		}
		inv = inv.AddPosition(Position{Amount: MustAmount("1", "VT"), Cost: cost})
	}

	amount := MustAmount("-500", "VT")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := FIFO.Book("Assets:Broker", "", nil, amount, inv); err != nil {
			b.Fatal(err)
		}
	}
}
