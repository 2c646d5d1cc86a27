package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/avandenberg/ledgerbook/ledger"
	"github.com/avandenberg/ledgerbook/loader"
	"github.com/avandenberg/ledgerbook/report"
)

// Report commands share the load-then-book pipeline and differ only in the
// renderer they feed the booked ledger to.

type BalancesCmd struct {
	File    FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Account string      `help:"Limit output to accounts with this prefix."`
}

func (cmd *BalancesCmd) Run(ctx *kong.Context, globals *Globals) error {
	booked, opts, err := bookForReport(ctx, globals, &cmd.File, cmd.Account)
	if err != nil {
		return err
	}
	return report.Balances(ctx.Stdout, booked, opts)
}

type JournalCmd struct {
	File    FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Account string      `help:"Limit output to postings on accounts with this prefix."`
}

func (cmd *JournalCmd) Run(ctx *kong.Context, globals *Globals) error {
	booked, opts, err := bookForReport(ctx, globals, &cmd.File, cmd.Account)
	if err != nil {
		return err
	}
	return report.Journal(ctx.Stdout, booked, opts)
}

// bookForReport loads and books the given file, rendering any error with
// source context and exiting non-zero, matching check's behavior.
func bookForReport(ctx *kong.Context, globals *Globals, file *FileOrStdin, accountFlag string) (*ledger.BookedLedger, report.Options, error) {
	config, err := globals.LoadConfig()
	if err != nil {
		return nil, report.Options{}, err
	}
	if err := resolveFile(file, config); err != nil {
		return nil, report.Options{}, err
	}

	if accountFlag == "" {
		accountFlag = config.Account
	}
	opts := report.Options{AccountPrefix: accountFlag}

	sourceContent, err := file.GetSourceContent()
	if err != nil {
		return nil, opts, fmt.Errorf("failed to read file for error context: %w", err)
	}

	runCtx := context.Background()

	ldr := loader.New(loader.WithFollowIncludes())
	ldg, err := file.LoadLedger(runCtx, ldr)
	if err != nil {
		renderer := NewErrorRenderer(sourceContent)
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
		os.Exit(1)
	}

	booked, err := ledger.Book(runCtx, ldg)
	if err != nil {
		var directiveErr *ledger.DirectiveError
		if stdErrors.As(err, &directiveErr) {
			renderer := NewErrorRenderer(sourceContent)
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(directiveErr))
			os.Exit(1)
		}
		return nil, opts, err
	}

	return booked, opts, nil
}
