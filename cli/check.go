package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/avandenberg/ledgerbook/ledger"
	"github.com/avandenberg/ledgerbook/loader"
	"github.com/avandenberg/ledgerbook/telemetry"
)

type CheckCmd struct {
	File FileOrStdin `help:"Ledger input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	config, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	if err := resolveFile(&cmd.File, config); err != nil {
		return err
	}

	runCtx := context.Background()

	var collector telemetry.Collector
	var checkTimer telemetry.Timer
	var once sync.Once

	reportTelemetry := func() {
		once.Do(func() {
			if collector != nil {
				checkTimer.End()
				_, _ = fmt.Fprintln(ctx.Stderr)
				collector.Report(ctx.Stderr)
			}
		})
	}

	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)

		checkTimer = collector.Start(fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
		runCtx = telemetry.WithRootTimer(runCtx, checkTimer)

		defer reportTelemetry()
	}

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file for error context: %w", err)
	}

	ldr := loader.New(loader.WithFollowIncludes())
	ldg, err := cmd.File.LoadLedger(runCtx, ldr)
	if err != nil {
		renderer := NewErrorRenderer(sourceContent)
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))

		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "load error")

		reportTelemetry()
		os.Exit(1)
	}

	if _, err := ledger.Book(runCtx, ldg); err != nil {
		var directiveErr *ledger.DirectiveError
		if stdErrors.As(err, &directiveErr) {
			renderer := NewErrorRenderer(sourceContent)
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(directiveErr))

			_, _ = fmt.Fprintln(ctx.Stderr)
			printError(ctx.Stderr, "booking error")

			reportTelemetry()
			os.Exit(1)
		}
		return err
	}

	printSuccess(ctx.Stdout, "Check passed")

	return nil
}
