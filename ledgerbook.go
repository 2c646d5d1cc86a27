// Package ledgerbook ties the subsystems together: load a ledger file (or
// source string) and book it in one call. The subpackages remain the real
// API surface — ast for the directive model, parser and loader for input,
// ledger for the booking engine, report for rendering.
package ledgerbook

import (
	"context"

	"github.com/avandenberg/ledgerbook/ast"
	"github.com/avandenberg/ledgerbook/ledger"
	"github.com/avandenberg/ledgerbook/loader"
)

// Load reads a ledger file, following includes, and returns the time-ordered
// directives.
func Load(ctx context.Context, filename string) (*ast.Ledger, error) {
	return loader.New(loader.WithFollowIncludes()).Load(ctx, filename)
}

// BookFile loads a ledger file and books it.
func BookFile(ctx context.Context, filename string) (*ledger.BookedLedger, error) {
	ldg, err := Load(ctx, filename)
	if err != nil {
		return nil, err
	}
	return ledger.Book(ctx, ldg)
}

// BookString loads ledger source from a string and books it. Includes are
// not followed; intended for tests and embedding.
func BookString(ctx context.Context, src string) (*ledger.BookedLedger, error) {
	ldg, err := loader.New().LoadBytes(ctx, "<string>", []byte(src))
	if err != nil {
		return nil, err
	}
	return ledger.Book(ctx, ldg)
}
