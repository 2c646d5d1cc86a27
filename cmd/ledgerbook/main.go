package main

import (
	"github.com/alecthomas/kong"

	"github.com/avandenberg/ledgerbook/cli"
)

func main() {
	commands := &cli.Commands{}

	ctx := kong.Parse(commands,
		kong.Name("ledgerbook"),
		kong.Description("A plain-text double-entry accounting engine with exact rational arithmetic."),
		kong.UsageOnError(),
		kong.Vars{"version": cli.Version},
	)

	err := ctx.Run(&commands.Globals)
	ctx.FatalIfErrorf(err)
}
