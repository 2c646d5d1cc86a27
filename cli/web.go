package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/avandenberg/ledgerbook/telemetry"
	"github.com/avandenberg/ledgerbook/web"
)

type WebCmd struct {
	File    string `help:"Ledger input filename." arg:"" optional:"" type:"existingfile"`
	Port    int    `help:"Port to listen on." default:"8179"`
	Host    string `help:"Host to bind to. Anything but localhost requires confirmation." default:"127.0.0.1"`
	NoWatch bool   `help:"Disable reloading when the ledger files change."`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	config, err := globals.LoadConfig()
	if err != nil {
		return err
	}

	file := cmd.File
	if file == "" {
		file = config.Ledger
	}
	if file == "" {
		return fmt.Errorf("no ledger file given and no default configured")
	}

	port := cmd.Port
	if port == 8179 && config.Port != 0 {
		port = config.Port
	}

	if cmd.Host != "127.0.0.1" && cmd.Host != "localhost" {
		confirm, err := promptYesNo(fmt.Sprintf(
			"Bind to %s? The server has no authentication and should not be exposed to untrusted networks.", cmd.Host))
		if err != nil {
			return err
		}
		if !confirm {
			printError(ctx.Stderr, "refusing to bind to a non-loopback host")
			return fmt.Errorf("aborted")
		}
	}

	runCtx := context.Background()
	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)
	}

	server := web.New(port, file)
	server.Host = cmd.Host
	server.WatchEnabled = !cmd.NoWatch

	printInfof(ctx.Stdout, "Serving %s on http://%s:%d", file, cmd.Host, port)

	return server.Start(runCtx)
}
